//go:build !windows

package terminal

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// gracefulKillSupported reports whether the platform has a cooperative
// termination signal distinct from a hard kill.
const gracefulKillSupported = true

func defaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/bash"
}

// SignalTerm sends SIGTERM so the process can exit cleanly.
func (p *ptyProc) SignalTerm() error {
	if p.cmd.Process == nil {
		return errors.New("process not started")
	}
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

// Terminate sends SIGKILL.
func (p *ptyProc) Terminate() error {
	if p.cmd.Process == nil {
		return errors.New("process not started")
	}
	return p.cmd.Process.Signal(syscall.SIGKILL)
}

// Wait reaps the process and reports its exit code and terminating signal.
func (p *ptyProc) Wait() (int, string) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, ""
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return exitErr.ExitCode(), ws.Signal().String()
		}
		return exitErr.ExitCode(), ""
	}
	return -1, ""
}

//go:build windows

package terminal

import (
	"errors"
	"os"
	"os/exec"
)

// gracefulKillSupported is false on Windows: there is no reliable
// cooperative termination signal, so kill goes straight to TerminateProcess.
const gracefulKillSupported = false

func defaultShell() string {
	if comspec := os.Getenv("COMSPEC"); comspec != "" {
		return comspec
	}
	return "cmd.exe"
}

// SignalTerm has no graceful equivalent on Windows; it terminates directly.
func (p *ptyProc) SignalTerm() error {
	return p.Terminate()
}

// Terminate kills the process unconditionally.
func (p *ptyProc) Terminate() error {
	if p.cmd.Process == nil {
		return errors.New("process not started")
	}
	return p.cmd.Process.Kill()
}

// Wait reaps the process and reports its exit code. Windows has no notion
// of a terminating signal.
func (p *ptyProc) Wait() (int, string) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, ""
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), ""
	}
	return -1, ""
}

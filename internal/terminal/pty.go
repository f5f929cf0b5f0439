package terminal

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Proc is the OS process handle behind a session. It is owned exclusively
// by the session that spawned it. The interface exists so tests can inject
// a fake process in place of a real PTY.
type Proc interface {
	io.Reader
	io.Writer

	// Resize changes the PTY dimensions.
	Resize(cols, rows uint16) error
	// Pid returns the OS process id.
	Pid() int
	// SignalTerm requests graceful termination. On platforms without a
	// graceful signal it is equivalent to Terminate.
	SignalTerm() error
	// Terminate kills the process unconditionally.
	Terminate() error
	// Wait blocks until the process exits and returns its exit code and
	// the name of the terminating signal, if any.
	Wait() (exitCode int, signal string)
	// Close releases the PTY file descriptor.
	Close() error
}

// StartProcFunc creates the OS process for a session. Manager uses
// StartPTY unless a test installs a fake.
type StartProcFunc func(command string, args []string, cwd string, env []string, cols, rows uint16) (Proc, error)

// ptyProc is the production Proc backed by creack/pty.
type ptyProc struct {
	ptmx *os.File
	cmd  *exec.Cmd
}

// StartPTY spawns command under a pseudo-terminal with the given working
// directory, environment, and initial size. An empty command resolves to
// the platform default shell.
func StartPTY(command string, args []string, cwd string, env []string, cols, rows uint16) (Proc, error) {
	if command == "" {
		command = defaultShell()
	}
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}

	cmd := exec.Command(command, args...)
	cmd.Dir = cwd
	cmd.Env = env

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("start pty %q: %w", command, err)
	}

	return &ptyProc{ptmx: ptmx, cmd: cmd}, nil
}

func (p *ptyProc) Read(b []byte) (int, error) {
	return p.ptmx.Read(b)
}

func (p *ptyProc) Write(b []byte) (int, error) {
	return p.ptmx.Write(b)
}

func (p *ptyProc) Resize(cols, rows uint16) error {
	return pty.Setsize(p.ptmx, &pty.Winsize{Cols: cols, Rows: rows})
}

func (p *ptyProc) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *ptyProc) Close() error {
	return p.ptmx.Close()
}

package runner

import (
	stderrors "errors"
	"io"
	"os/exec"

	"github.com/arthur-debert/heainstall/pkg/types"
)

// Process is a launched subprocess.
type Process interface {
	// Done is closed once the process has exited and its exit code is known.
	Done() <-chan struct{}
	// ExitCode is valid after Done is closed. -1 means the process was
	// killed or its status could not be read.
	ExitCode() int
	Kill() error
}

// Launcher starts subprocesses.
type Launcher interface {
	Launch(spec types.CommandSpec, env []string, stdout, stderr io.Writer) (Process, error)
}

// ExecLauncher starts real processes with os/exec.
type ExecLauncher struct{}

func (ExecLauncher) Launch(spec types.CommandSpec, env []string, stdout, stderr io.Writer) (Process, error) {
	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go p.wait()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	code int
}

func (p *execProcess) wait() {
	p.code = exitCode(p.cmd.Wait())
	close(p.done)
}

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) ExitCode() int { return p.code }

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

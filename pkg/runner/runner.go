package runner

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/heainstall/pkg/logging"
	"github.com/arthur-debert/heainstall/pkg/logsink"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// Runner executes stage subprocesses one at a time.
type Runner struct {
	sinks    *logsink.Sinks
	launcher Launcher
	clock    Clock
	baseEnv  func() []string
	progress ProgressSurface
	spinner  SpinnerSurface
	logger   zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLauncher replaces the os/exec launcher.
func WithLauncher(l Launcher) Option {
	return func(r *Runner) { r.launcher = l }
}

// WithClock replaces the wall clock used between polls.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithBaseEnv sets the environment overlays are applied to.
func WithBaseEnv(env func() []string) Option {
	return func(r *Runner) { r.baseEnv = env }
}

// WithSurfaces sets the progress and spinner displays.
func WithSurfaces(p ProgressSurface, s SpinnerSurface) Option {
	return func(r *Runner) {
		r.progress = p
		r.spinner = s
	}
}

// New returns a runner writing stage output to sinks. Without options it
// launches real processes, inherits the current environment and prints
// plain lines to stdout.
func New(sinks *logsink.Sinks, opts ...Option) *Runner {
	r := &Runner{
		sinks:    sinks,
		launcher: ExecLauncher{},
		clock:    realClock{},
		baseEnv:  os.Environ,
		progress: NewPlainProgress(os.Stdout),
		spinner:  NewPlainSpinner(os.Stdout),
		logger:   logging.GetLogger("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// launch opens the stage's log scope and starts the process. The scope is
// closed before returning on failure; otherwise the caller owns it.
func (r *Runner) launch(spec types.CommandSpec, category types.LogCategory, env types.EnvironmentOverlay) (Process, io.Closer, error) {
	scope, err := r.sinks.Open(category)
	if err != nil {
		return nil, nil, err
	}

	logging.LogCommand(r.logger, spec.Program, spec.Args)
	proc, err := r.launcher.Launch(spec, env.Apply(r.baseEnv()), scope.Out, scope.Err)
	if err != nil {
		_, _ = fmt.Fprintf(scope.Err, "failed to launch %s: %v\n", spec, err)
		_ = scope.Close()
		return nil, nil, err
	}
	return proc, scope, nil
}

func launchFailure(stage types.StageID, label string, err error, d time.Duration) types.StageResult {
	res := types.NewStageResult(stage, label, -1, d)
	res.Message = fmt.Sprintf("%s: Failed to start: %v", label, err)
	return res
}

// Package sequencer drives the installation stages in their fixed order.
//
// Each stage checks its precondition, asks the catalog for its commands and
// hands them to a runner. The first failed precondition or unsuccessful
// result aborts the sequence; there is no retry. An operator can resume
// from a named stage after fixing the cause.
package sequencer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/heainstall/pkg/catalog"
	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/logging"
	"github.com/arthur-debert/heainstall/pkg/logsink"
	"github.com/arthur-debert/heainstall/pkg/runner"
	"github.com/arthur-debert/heainstall/pkg/shellrc"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// StageRunner runs one subprocess. *runner.Runner implements it.
type StageRunner interface {
	RunPipeline(ctx context.Context, job runner.PipelineJob) types.StageResult
	RunSpinner(ctx context.Context, job runner.SpinnerJob) types.StageResult
}

// Deps are the collaborators of a Sequencer.
type Deps struct {
	Settings *config.Settings
	Catalog  *catalog.Catalog
	Runner   StageRunner
	Sinks    *logsink.Sinks
	Fs       afero.Fs
	LookPath catalog.LookPath
	Getenv   func(string) string
	Out      io.Writer
}

// Options are the operator's decisions for one run.
type Options struct {
	RunID string
	// From resumes the sequence at a stage; earlier stages are skipped.
	From types.StageID
	// ArchiveSupplied means the context's archive was already on disk and
	// the download is skipped.
	ArchiveSupplied bool
	// Compilers maps set_flags to resolved compiler paths.
	Compilers map[string]string
	// EnvFile is an optional dotenv file layered onto the build environment.
	EnvFile string
}

// Report is the outcome of a run.
type Report struct {
	RunID    string
	Results  []types.StageResult
	Warnings []string
	// Failed names the stage that aborted the run.
	Failed types.StageID
	Err    error
}

// Success reports whether every stage completed.
func (r Report) Success() bool {
	return r.Failed == "" && r.Err == nil
}

// Last returns the final result, if any.
func (r Report) Last() (types.StageResult, bool) {
	if len(r.Results) == 0 {
		return types.StageResult{}, false
	}
	return r.Results[len(r.Results)-1], true
}

// Sequencer runs the stages.
type Sequencer struct {
	settings  *config.Settings
	catalog   *catalog.Catalog
	runner    StageRunner
	sinks     *logsink.Sinks
	fs        afero.Fs
	lookPath  catalog.LookPath
	registrar *shellrc.Registrar
	out       io.Writer
	logger    zerolog.Logger
}

// New builds a sequencer. Getenv defaults to os.Getenv and Out to stdout.
func New(d Deps) *Sequencer {
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	return &Sequencer{
		settings:  d.Settings,
		catalog:   d.Catalog,
		runner:    d.Runner,
		sinks:     d.Sinks,
		fs:        d.Fs,
		lookPath:  d.LookPath,
		registrar: shellrc.NewRegistrar(d.Fs, d.Settings.Source, d.Getenv),
		out:       d.Out,
		logger:    logging.GetLogger("sequencer"),
	}
}

// run carries what the stages of one run share.
type run struct {
	ictx types.InstallContext
	opts Options
	env  types.EnvironmentOverlay
	rep  *Report
}

type stageFunc func(ctx context.Context, r *run) error

func (s *Sequencer) stages() map[types.StageID]stageFunc {
	return map[types.StageID]stageFunc{
		types.StageUpdate:        s.update,
		types.StageInstallDeps:   s.installDeps,
		types.StageConfigEnv:     s.configEnv,
		types.StageAcquireSource: s.acquireSource,
		types.StageExtract:       s.extract,
		types.StageConfigure:     s.configure,
		types.StageCompile:       s.compile,
		types.StageInstall:       s.install,
		types.StageRegisterShell: s.registerShell,
		types.StageVerify:        s.verify,
	}
}

// Run executes the sequence for ictx and returns the report. The report is
// returned even when the run aborts.
func (s *Sequencer) Run(ctx context.Context, ictx types.InstallContext, opts Options) Report {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	rep := Report{RunID: opts.RunID}
	logger := logging.WithRun(s.logger, opts.RunID)
	start := time.Now()

	from := 0
	if opts.From != "" {
		from = opts.From.Index()
		if from < 0 {
			rep.Failed = opts.From
			rep.Err = errors.Newf(errors.ErrInvalidInput, "unknown stage %q", opts.From)
			return rep
		}
	}

	env, err := s.environment(opts)
	if err != nil {
		rep.Failed = types.StageConfigEnv
		rep.Err = err
		return rep
	}

	if err := s.sinks.Init(opts.RunID, opts.From); err != nil {
		rep.Err = err
		return rep
	}

	r := &run{ictx: ictx, opts: opts, env: env, rep: &rep}
	table := s.stages()

	for i, id := range types.Stages {
		if i < from {
			rep.Results = append(rep.Results, types.StageResult{
				Stage:   id,
				Label:   s.label(id),
				Success: true,
				Skipped: true,
				Message: fmt.Sprintf("%s: Skipped (resuming from %s).", s.label(id), opts.From),
			})
			continue
		}
		if err := ctx.Err(); err != nil {
			rep.Failed = id
			rep.Err = errors.Wrap(err, errors.ErrSubprocessFailure, "run interrupted")
			return rep
		}

		logger.Info().Str("stage", string(id)).Msg("Starting stage")
		if err := table[id](ctx, r); err != nil {
			rep.Failed = id
			rep.Err = err
			logger.Error().Err(err).Str("stage", string(id)).Msg("Run aborted")
			_ = s.sinks.Append(types.LogError, fmt.Sprintf("%s: %v", id, err))
			return rep
		}
	}

	logging.LogDuration(logger, start, "run")
	return rep
}

// record appends a result and converts a failure into the abort error.
func (s *Sequencer) record(r *run, res types.StageResult) error {
	r.rep.Results = append(r.rep.Results, res)
	if res.Success {
		return nil
	}
	return errors.Newf(errors.ErrSubprocessFailure, "%s", res.Message).
		WithDetail("stage", string(res.Stage)).
		WithDetail("exitCode", res.ExitCode)
}

func (s *Sequencer) skip(r *run, id types.StageID, reason string) {
	res := types.StageResult{
		Stage:   id,
		Label:   s.label(id),
		Success: true,
		Skipped: true,
		Message: fmt.Sprintf("%s: Skipped (%s).", s.label(id), reason),
	}
	r.rep.Results = append(r.rep.Results, res)
	pterm.Info.WithWriter(s.out).Println(res.Message)
}

func (s *Sequencer) warn(r *run, msg string) {
	r.rep.Warnings = append(r.rep.Warnings, msg)
	pterm.Warning.WithWriter(s.out).Println(msg)
}

func (s *Sequencer) label(id types.StageID) string {
	if l := s.settings.Stage(string(id)).Label; l != "" {
		return l
	}
	return string(id)
}

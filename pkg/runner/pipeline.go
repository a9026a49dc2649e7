package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/arthur-debert/heainstall/pkg/logging"
	"github.com/arthur-debert/heainstall/pkg/observer"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// PipelineJob describes a stage whose progress can be observed.
type PipelineJob struct {
	Stage types.StageID
	Spec  types.CommandSpec
	// Observer samples Target, the file whose growth tracks progress.
	Observer     observer.Observer
	Target       string
	InitialTotal int64
	Unit         string
	Description  string
	PollInterval time.Duration
	// Label names the stage in result messages.
	Label    string
	Category types.LogCategory
	Env      types.EnvironmentOverlay
	// Timeout kills the process when positive. Zero waits forever.
	Timeout time.Duration
}

// RunPipeline runs job while polling its observer.
func (r *Runner) RunPipeline(ctx context.Context, job PipelineJob) types.StageResult {
	start := r.clock.Now()
	logger := r.logger.With().Str("stage", string(job.Stage)).Logger()

	unit := job.Unit
	if unit == "" {
		unit = job.Observer.Unit()
	}
	state := types.NewProgressState(job.InitialTotal, unit, job.Description)

	proc, scope, err := r.launch(job.Spec, job.Category, job.Env)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to launch")
		res := launchFailure(job.Stage, job.Label, err, r.clock.Now().Sub(start))
		r.progress.Start(state)
		r.progress.Finish(state, res)
		return res
	}
	defer func() { _ = scope.Close() }()

	tracker := observer.NewTracker(job.Observer, job.Target)
	r.progress.Start(state)

	var timeout <-chan time.Time
	if job.Timeout > 0 {
		timeout = r.clock.After(job.Timeout)
	}
	poll := job.PollInterval
	if poll <= 0 {
		poll = time.Second
	}

	var timedOut, cancelled bool
	stop := func() {
		if err := proc.Kill(); err != nil {
			logger.Warn().Err(err).Msg("Failed to kill process")
		}
		<-proc.Done()
	}

loop:
	for {
		select {
		case <-proc.Done():
			break loop
		default:
		}

		state.Advance(tracker.Sample())
		r.progress.Update(state)

		select {
		case <-proc.Done():
		case <-r.clock.After(poll):
		case <-timeout:
			timedOut = true
			stop()
		case <-ctx.Done():
			cancelled = true
			stop()
		}
	}

	state.Revise(tracker.Finalize())

	res := types.NewStageResult(job.Stage, job.Label, proc.ExitCode(), r.clock.Now().Sub(start))
	switch {
	case timedOut:
		res.Success = false
		res.Message = fmt.Sprintf("%s: Timed out after %s.", job.Label, job.Timeout)
	case cancelled:
		res.Success = false
		res.Message = fmt.Sprintf("%s: Interrupted.", job.Label)
	}

	r.progress.Finish(state, res)
	logger.Info().
		Int("exitCode", res.ExitCode).
		Int64("units", state.Current).
		Int64("estimate", job.InitialTotal).
		Msg(res.Message)
	logging.LogDuration(logger, start, string(job.Stage))
	return res
}

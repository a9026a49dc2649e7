package runner

import (
	"context"
	"fmt"

	"github.com/arthur-debert/heainstall/pkg/types"
)

// SpinnerJob describes a stage with no observable progress.
type SpinnerJob struct {
	Stage    types.StageID
	Spec     types.CommandSpec
	Label    string
	Category types.LogCategory
	Env      types.EnvironmentOverlay
}

// RunSpinner runs job behind an indefinite animation.
func (r *Runner) RunSpinner(ctx context.Context, job SpinnerJob) types.StageResult {
	start := r.clock.Now()
	logger := r.logger.With().Str("stage", string(job.Stage)).Logger()

	r.spinner.Start(job.Label)

	proc, scope, err := r.launch(job.Spec, job.Category, job.Env)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to launch")
		res := launchFailure(job.Stage, job.Label, err, r.clock.Now().Sub(start))
		r.spinner.Stop(res)
		return res
	}
	defer func() { _ = scope.Close() }()

	cancelled := false
	select {
	case <-proc.Done():
	case <-ctx.Done():
		cancelled = true
		_ = proc.Kill()
		<-proc.Done()
	}

	res := types.NewStageResult(job.Stage, job.Label, proc.ExitCode(), r.clock.Now().Sub(start))
	if cancelled {
		res.Success = false
		res.Message = fmt.Sprintf("%s: Interrupted.", job.Label)
	}
	r.spinner.Stop(res)
	logger.Info().Int("exitCode", res.ExitCode).Msg(res.Message)
	return res
}

package types

import (
	"fmt"
	"time"

	"github.com/arthur-debert/heainstall/pkg/errors"
)

// StageID names one unit of the installation sequence.
type StageID string

const (
	StageUpdate        StageID = "update"
	StageInstallDeps   StageID = "install_deps"
	StageConfigEnv     StageID = "config_env"
	StageAcquireSource StageID = "acquire_source"
	StageExtract       StageID = "extract"
	StageConfigure     StageID = "configure"
	StageCompile       StageID = "compile"
	StageInstall       StageID = "install"
	StageRegisterShell StageID = "register_shell"
	StageVerify        StageID = "verify"

	// StageUpgrade is the second command of the update stage.
	StageUpgrade StageID = "upgrade"
)

// Stages lists the sequence in execution order.
var Stages = []StageID{
	StageUpdate,
	StageInstallDeps,
	StageConfigEnv,
	StageAcquireSource,
	StageExtract,
	StageConfigure,
	StageCompile,
	StageInstall,
	StageRegisterShell,
	StageVerify,
}

// ParseStageID validates a stage name.
func ParseStageID(name string) (StageID, error) {
	for _, id := range Stages {
		if string(id) == name {
			return id, nil
		}
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown stage %q", name)
}

// Index returns the position of the stage in the sequence, or -1.
func (s StageID) Index() int {
	for i, id := range Stages {
		if id == s {
			return i
		}
	}
	return -1
}

// StageResult is the outcome of running one stage.
type StageResult struct {
	Stage    StageID
	Label    string
	ExitCode int
	Success  bool
	Skipped  bool
	Duration time.Duration
	Message  string
}

// NewStageResult classifies an exit code. Zero is the only success signal.
func NewStageResult(stage StageID, label string, exitCode int, duration time.Duration) StageResult {
	r := StageResult{
		Stage:    stage,
		Label:    label,
		ExitCode: exitCode,
		Success:  exitCode == 0,
		Duration: duration,
	}
	if r.Success {
		r.Message = fmt.Sprintf("%s: Completed successfully.", label)
	} else {
		r.Message = fmt.Sprintf("%s: Failed with return code %d.", label, exitCode)
	}
	return r
}

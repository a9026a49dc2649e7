// Package runner launches one stage's subprocess with its output bound to
// the run's log files and reports progress while it runs.
//
// Two variants share the launch, log and exit-code contract:
//
//   - RunPipeline polls an observer on a fixed interval and drives a
//     quantified progress surface. After the process exits the observer
//     is finalized exactly once and the total is revised to the measured
//     value.
//   - RunSpinner shows an indefinite animation for steps whose completion
//     cannot be estimated.
//
// Exit code zero is the only success signal. Failures are returned as
// StageResults, never raised.
package runner

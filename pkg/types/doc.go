// Package types defines the values shared by every part of heainstall:
// the immutable InstallContext built from configuration and environment
// probing, the CommandSpec handed to a runner, the StageResult a runner
// returns, the per-stage ProgressState and the EnvironmentOverlay merged
// into every subprocess launch.
package types

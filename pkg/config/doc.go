// Package config handles configuration management for heainstall.
// It layers the embedded defaults, an optional user file (TOML or YAML)
// and HEAINSTALL_ environment variables with koanf, then decodes the
// result into Settings: the platform, package-manager, shell, component
// and stage tables the command catalog and the sequencer read.
package config

package heainstall

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort        = "Build and install HEASoft from source"
	MsgRunShort         = "Run the installation sequence"
	MsgPlanShort        = "Print the commands each stage would run"
	MsgConfigShort      = "Inspect or create the configuration"
	MsgConfigShowShort  = "Print the effective configuration"
	MsgConfigInitShort  = "Write the default configuration to the user config file"
	MsgVersionShort     = "Print version information"
	MsgCompletionShort  = "Generate shell completion script"
	MsgManShort         = "Generate man pages"
	MsgNoSupportedShell = "no supported shell, skipped"

	// Status messages
	MsgConfigWritten   = "Wrote default configuration to %s\n"
	MsgArchiveSupplied = "Using source archive %s"
	MsgManWritten      = "Wrote man pages to %s\n"
	MsgVersionFormat   = "heainstall version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrNoCommand     = "no command specified"
	MsgErrArchive       = "archive %s is not a readable file"
	MsgErrArchiveFlags  = "--archive and --download cannot be used together"
	MsgErrUnknownFormat = "unknown output format %q"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig     = "Configuration file (TOML or YAML)"
	MsgFlagInstallDir = "Install directory (overrides paths.install_dir)"
	MsgFlagOutput     = "Output style: auto, term or text"
	MsgFlagArchive    = "Use an already downloaded source archive"
	MsgFlagDownload   = "Always download the source archive without asking"
	MsgFlagFrom       = "Resume the sequence at this stage"
	MsgFlagEnvFile    = "Dotenv file layered onto the build environment"
	MsgFlagTimeout    = "Kill any progress stage running longer than this (0 disables)"
	MsgFlagFormat     = "Output format: toml or yaml"
	MsgFlagForce      = "Overwrite an existing file"
	MsgFlagManDir     = "Directory to write man pages to"
	MsgFlagStdout     = "Print the defaults instead of writing them"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/run-long.txt
	msgRunLongRaw string
	MsgRunLong    = strings.TrimSpace(msgRunLongRaw)

	//go:embed msgs/run-example.txt
	msgRunExampleRaw string
	MsgRunExample    = strings.TrimRight(msgRunExampleRaw, "\n")

	//go:embed msgs/plan-long.txt
	msgPlanLongRaw string
	MsgPlanLong    = strings.TrimSpace(msgPlanLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)

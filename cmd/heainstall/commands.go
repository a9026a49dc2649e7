package heainstall

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/heainstall/internal/version"
	"github.com/arthur-debert/heainstall/pkg/catalog"
	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/logging"
	"github.com/arthur-debert/heainstall/pkg/style"
)

// probeHost describes the machine commands run against. Tests replace it.
var probeHost = catalog.CurrentHost

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	var (
		verbosity  int
		configFile string
		installDir string
		output     string
	)

	rootCmd := &cobra.Command{
		Use:     "heainstall",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	pf.StringVar(&configFile, "config", "", MsgFlagConfig)
	pf.StringVar(&installDir, "install-dir", "", MsgFlagInstallDir)
	pf.StringVar(&output, "output", "auto", MsgFlagOutput)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	return rootCmd
}

// globals are the persistent flags every command reads.
type globals struct {
	configFile string
	installDir string
	format     style.Format
}

func readGlobals(cmd *cobra.Command) (globals, error) {
	flags := cmd.Root().PersistentFlags()
	configFile, _ := flags.GetString("config")
	installDir, _ := flags.GetString("install-dir")
	output, _ := flags.GetString("output")

	format, err := style.ParseFormat(output)
	if err != nil {
		return globals{}, errors.Wrapf(err, errors.ErrInvalidInput, MsgErrUnknownFormat, output)
	}
	return globals{
		configFile: configFile,
		installDir: installDir,
		format:     format.Resolve(os.Stdout),
	}, nil
}

func loadSettings(g globals) (*config.Settings, error) {
	opts := config.LoadOptions{ConfigFile: g.configFile}
	if g.installDir != "" {
		opts.Overrides = map[string]interface{}{"paths.install_dir": g.installDir}
	}
	return config.Load(opts)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: MsgConfigShowShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			settings, err := loadSettings(g)
			if err != nil {
				return err
			}
			data, err := settings.Dump(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	show.Flags().StringVar(&format, "format", "toml", MsgFlagFormat)

	var force, stdout bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: MsgConfigInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdout {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.GetDefaultsContent())
				return err
			}
			path, err := config.UserConfigPath()
			if err != nil {
				return err
			}
			if err := config.WriteDefaults(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgConfigWritten, path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)
	initCmd.Flags().BoolVar(&stdout, "stdout", false, MsgFlagStdout)

	cmd.AddCommand(show, initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

func newManCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:     "man",
		Short:   MsgManShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			header := &doc.GenManHeader{
				Title:   "HEAINSTALL",
				Section: "1",
				Source:  "heainstall " + version.Version,
				Manual:  "heainstall manual",
			}
			if err := doc.GenManTree(cmd.Root(), header, dir); err != nil {
				return err
			}
			abs, _ := filepath.Abs(dir)
			fmt.Fprintf(cmd.OutOrStdout(), MsgManWritten, abs)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "man", MsgFlagManDir)
	return cmd
}

package heainstall

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/heainstall/pkg/catalog"
	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/logsink"
	"github.com/arthur-debert/heainstall/pkg/prompt"
	"github.com/arthur-debert/heainstall/pkg/report"
	"github.com/arthur-debert/heainstall/pkg/runner"
	"github.com/arthur-debert/heainstall/pkg/sequencer"
	"github.com/arthur-debert/heainstall/pkg/style"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// newFs is the filesystem a run works on. Tests replace it.
var newFs = afero.NewOsFs

type runFlags struct {
	archive  string
	download bool
	from     string
	envFile  string
	timeout  time.Duration
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:     "run",
		Short:   MsgRunShort,
		Long:    MsgRunLong,
		Example: MsgRunExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.archive, "archive", "", MsgFlagArchive)
	flags.BoolVar(&f.download, "download", false, MsgFlagDownload)
	flags.StringVar(&f.from, "from", "", MsgFlagFrom)
	flags.StringVar(&f.envFile, "env-file", "", MsgFlagEnvFile)
	flags.DurationVar(&f.timeout, "timeout", 0, MsgFlagTimeout)
	_ = cmd.RegisterFlagCompletionFunc("from", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(types.Stages))
		for i, id := range types.Stages {
			names[i] = string(id)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runInstall(cmd *cobra.Command, f runFlags) error {
	if f.archive != "" && f.download {
		return errors.New(errors.ErrInvalidInput, MsgErrArchiveFlags)
	}
	var from types.StageID
	if f.from != "" {
		id, err := types.ParseStageID(f.from)
		if err != nil {
			return errors.Wrap(err, errors.ErrInvalidInput, "invalid --from")
		}
		from = id
	}

	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	settings, err := loadSettings(g)
	if err != nil {
		return err
	}
	if f.timeout > 0 {
		for id, t := range settings.Stages {
			t.Timeout = f.timeout
			settings.Stages[id] = t
		}
	}

	out := cmd.OutOrStdout()
	host := probeHost()
	cat := catalog.New(settings, host.LookPath)
	ictx, warnings, err := cat.Probe(host)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		pterm.Warning.WithWriter(out).Println(w.Error())
	}
	compilers, err := cat.CompilerPaths(ictx)
	if err != nil {
		return err
	}

	fs := newFs()
	ictx, supplied, err := chooseArchive(cmd, f, from, settings, ictx, fs, host.Getenv, g.format)
	if err != nil {
		return err
	}

	sinks := logsink.New(fs, ictx.InstallDir)
	seq := sequencer.New(sequencer.Deps{
		Settings: settings,
		Catalog:  cat,
		Runner:   runner.New(sinks, surfaces(g.format, out)),
		Sinks:    sinks,
		Fs:       fs,
		LookPath: host.LookPath,
		Getenv:   host.Getenv,
		Out:      out,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := seq.Run(ctx, ictx, sequencer.Options{
		From:            from,
		ArchiveSupplied: supplied,
		Compilers:       compilers,
		EnvFile:         f.envFile,
	})
	event := log.Info().Str("run", rep.RunID).Bool("success", rep.Success())
	if last, ok := rep.Last(); ok {
		event = event.Str("last", string(last.Stage))
	}
	event.Msg("Run finished")

	fmt.Fprintln(out, report.Render(report.Markdown(rep, sinks), g.format, pterm.GetTerminalWidth()))
	if !rep.Success() {
		return rep.Err
	}
	return nil
}

// chooseArchive settles where the source archive comes from before the
// first stage. supplied is true when the download is to be skipped.
func chooseArchive(cmd *cobra.Command, f runFlags, from types.StageID, settings *config.Settings,
	ictx types.InstallContext, fs afero.Fs, getenv func(string) string, format style.Format) (types.InstallContext, bool, error) {
	out := cmd.OutOrStdout()
	asker := &prompt.ArchiveAsker{
		Prompter:  prompterFor(cmd, format),
		Responses: settings.Responses,
		Fs:        fs,
		Out:       out,
		Getenv:    getenv,
	}

	switch {
	case f.archive != "":
		matches := asker.Matches(f.archive)
		if len(matches) != 1 {
			return ictx, false, errors.Newf(errors.ErrInvalidInput, MsgErrArchive, f.archive).
				WithDetail("matches", matches)
		}
		pterm.Info.WithWriter(out).Printfln(MsgArchiveSupplied, matches[0])
		return ictx.WithArchive(matches[0]), true, nil
	case f.download:
		return ictx, false, nil
	case from.Index() > types.StageAcquireSource.Index():
		// Resuming past the download reads the archive from its default place.
		return ictx, false, nil
	}

	path, supplied, err := asker.Ask()
	if err != nil {
		return ictx, false, err
	}
	if supplied {
		return ictx.WithArchive(path), true, nil
	}
	return ictx, false, nil
}

func prompterFor(cmd *cobra.Command, format style.Format) prompt.Prompter {
	if format == style.FormatTerminal && style.IsTerminal(os.Stdin) {
		return prompt.TermPrompter{}
	}
	return prompt.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

func surfaces(format style.Format, out io.Writer) runner.Option {
	if format == style.FormatTerminal {
		return runner.WithSurfaces(runner.NewTerminalProgress(out), runner.NewTerminalSpinner(out))
	}
	return runner.WithSurfaces(runner.NewPlainProgress(out), runner.NewPlainSpinner(out))
}

package heainstall

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/heainstall/pkg/catalog"
	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/style"
	"github.com/arthur-debert/heainstall/pkg/types"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "plan",
		Short:   MsgPlanShort,
		Long:    MsgPlanLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			settings, err := loadSettings(g)
			if err != nil {
				return err
			}
			host := probeHost()
			cat := catalog.New(settings, host.LookPath)
			ictx, _, err := cat.Probe(host)
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), settings, cat, ictx, g.format == style.FormatTerminal)
		},
	}
}

func printPlan(out io.Writer, settings *config.Settings, cat *catalog.Catalog, ictx types.InstallContext, styled bool) error {
	for _, id := range types.Stages {
		label := settings.Stage(string(id)).Label
		if label == "" {
			label = string(id)
		}
		heading := fmt.Sprintf("%s (%s)", label, id)
		if styled {
			heading = style.TitleStyle.Render(heading)
		}
		fmt.Fprintln(out, heading)

		switch id {
		case types.StageConfigEnv:
			planEnvironment(out, settings, cat, ictx)
		case types.StageRegisterShell:
			if !ictx.HasShell() {
				fmt.Fprintf(out, "  %s\n", MsgNoSupportedShell)
				continue
			}
			files := settings.Shells[ictx.Shell].ConfigFiles
			fmt.Fprintf(out, "  append to the first existing of: %s\n", strings.Join(files, ", "))
		default:
			steps, err := cat.Plan(id, ictx)
			if errors.IsErrorCode(err, errors.ErrNoCompatibleShell) {
				fmt.Fprintf(out, "  %s\n", MsgNoSupportedShell)
				continue
			}
			if err != nil {
				return err
			}
			for _, step := range steps {
				fmt.Fprintf(out, "  $ %s\n", step.Spec)
			}
		}
	}
	return nil
}

func planEnvironment(out io.Writer, settings *config.Settings, cat *catalog.Catalog, ictx types.InstallContext) {
	compilers, err := cat.CompilerPaths(ictx)
	if err != nil {
		fmt.Fprintf(out, "  ! %v\n", err)
		return
	}
	flags := make([]string, 0, len(compilers))
	for flag := range compilers {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	for _, flag := range flags {
		fmt.Fprintf(out, "  set %s=%s\n", flag, compilers[flag])
	}
	for _, flag := range settings.Environment.UnsetFlags {
		fmt.Fprintf(out, "  unset %s\n", flag)
	}
	if len(settings.Environment.PathPrefix) > 0 {
		fmt.Fprintf(out, "  prepend PATH %s\n", strings.Join(settings.Environment.PathPrefix, ":"))
	}
}

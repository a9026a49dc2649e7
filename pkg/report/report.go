// Package report turns a finished run into the summary shown to the
// operator: a markdown document, rendered with glamour on a terminal and
// printed as is otherwise.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/logsink"
	"github.com/arthur-debert/heainstall/pkg/sequencer"
	"github.com/arthur-debert/heainstall/pkg/style"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// Markdown builds the summary of rep. Log paths are read from sinks.
func Markdown(rep sequencer.Report, sinks *logsink.Sinks) string {
	var b strings.Builder

	if rep.Success() {
		b.WriteString("# HEASoft installation complete\n\n")
	} else {
		b.WriteString("# HEASoft installation failed\n\n")
	}
	fmt.Fprintf(&b, "Run `%s`\n\n", rep.RunID)

	if len(rep.Results) > 0 {
		b.WriteString("| | Stage | Outcome | Time |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, res := range rep.Results {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				style.Mark(res, false), res.Label, outcome(res), elapsed(res))
		}
		b.WriteString("\n")
	}

	if rep.Err != nil {
		fmt.Fprintf(&b, "## %s\n\n", errors.ClassOf(rep.Err))
		if rep.Failed != "" {
			fmt.Fprintf(&b, "Stage `%s` stopped the run: %s\n\n", rep.Failed, rep.Err)
			fmt.Fprintf(&b, "Fix the cause and resume with `heainstall run --from %s`.\n\n", rep.Failed)
		} else {
			fmt.Fprintf(&b, "%s\n\n", rep.Err)
		}
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range rep.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if sinks != nil {
		b.WriteString("## Logs\n\n")
		for _, cat := range types.LogCategories {
			fmt.Fprintf(&b, "- %s: `%s`\n", cat, sinks.Path(cat))
		}
	}

	return b.String()
}

func outcome(res types.StageResult) string {
	switch {
	case res.Skipped:
		return "skipped"
	case res.Success:
		return "done"
	case res.ExitCode < 0:
		return "not run"
	}
	return fmt.Sprintf("exit %d", res.ExitCode)
}

func elapsed(res types.StageResult) string {
	if res.Skipped || res.Duration <= 0 {
		return "-"
	}
	return res.Duration.Round(100 * time.Millisecond).String()
}

// Render returns md rendered for format. Text output and rendering
// failures return md unchanged.
func Render(md string, format style.Format, width int) string {
	if format != style.FormatTerminal {
		return md
	}

	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/heainstall/pkg/types"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Italic(true)

	// BoxStyle frames the final run summary.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)
)

// Indicators for a stage outcome. The plain variants are used when the
// output is not a terminal.
const (
	SuccessMark = "✓"
	FailureMark = "✗"
	SkippedMark = "○"
)

// Mark returns the indicator for a result, styled when styled is set.
func Mark(res types.StageResult, styled bool) string {
	mark, st := SuccessMark, SuccessStyle
	switch {
	case res.Skipped:
		mark, st = SkippedMark, MutedStyle
	case !res.Success:
		mark, st = FailureMark, ErrorStyle
	}
	if !styled {
		return mark
	}
	return st.Render(mark)
}

// Error renders an error line for stderr.
func Error(msg string, styled bool) string {
	if !styled {
		return msg
	}
	return ErrorStyle.Render(msg)
}

// Warning renders a warning line.
func Warning(msg string, styled bool) string {
	if !styled {
		return msg
	}
	return WarningStyle.Render(msg)
}

// Boxed frames s when styled is set.
func Boxed(s string, styled bool) string {
	if !styled {
		return s
	}
	return BoxStyle.Render(s)
}

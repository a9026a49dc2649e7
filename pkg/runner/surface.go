package runner

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/heainstall/pkg/types"
)

// Glyphs is the spinner animation.
var Glyphs = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TickInterval is the spinner frame delay.
const TickInterval = 100 * time.Millisecond

// ProgressSurface displays a quantified stage.
type ProgressSurface interface {
	Start(state *types.ProgressState)
	Update(state *types.ProgressState)
	Finish(state *types.ProgressState, result types.StageResult)
}

// SpinnerSurface displays an indefinite stage.
type SpinnerSurface interface {
	Start(label string)
	Stop(result types.StageResult)
}

// TerminalProgress renders a pterm progress bar.
type TerminalProgress struct {
	w   io.Writer
	bar *pterm.ProgressbarPrinter
}

// NewTerminalProgress returns a progress bar surface writing to w.
func NewTerminalProgress(w io.Writer) *TerminalProgress {
	return &TerminalProgress{w: w}
}

func (s *TerminalProgress) Start(state *types.ProgressState) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(displayTotal(state)).
		WithTitle(title(state)).
		WithWriter(s.w).
		WithRemoveWhenDone(false).
		Start()
	if err != nil {
		s.bar = nil
		return
	}
	s.bar = bar
}

func (s *TerminalProgress) Update(state *types.ProgressState) {
	if s.bar == nil {
		return
	}
	s.bar.Total = displayTotal(state)
	s.bar.UpdateTitle(title(state))
	if delta := clampInt(state.Current) - s.bar.Current; delta > 0 {
		s.bar.Add(delta)
	}
}

func (s *TerminalProgress) Finish(state *types.ProgressState, result types.StageResult) {
	if s.bar != nil {
		if state.Total > 0 {
			s.bar.Total = clampInt(state.Total)
		}
		s.bar.UpdateTitle(title(state))
		if delta := clampInt(state.Current) - s.bar.Current; delta > 0 {
			s.bar.Add(delta)
		}
		if s.bar.IsActive {
			_, _ = s.bar.Stop()
		}
		s.bar = nil
	}
	if result.Success {
		pterm.Success.WithWriter(s.w).Println(result.Message)
	} else {
		pterm.Error.WithWriter(s.w).Println(result.Message)
	}
}

// displayTotal keeps the bar below 100% while the process still runs. The
// estimate may be wrong in either direction; only the revised total is exact.
func displayTotal(state *types.ProgressState) int {
	if state.Revised() {
		return clampInt(state.Total)
	}
	if state.Current >= state.Total {
		if c := clampInt(state.Current); c < math.MaxInt {
			return c + 1
		}
		return math.MaxInt
	}
	return clampInt(state.Total)
}

// clampInt converts for the bar, which counts in int. Byte totals of the
// download overflow int on 32-bit builds.
func clampInt(v int64) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

func title(state *types.ProgressState) string {
	if state.Unit != "B" {
		return state.Description
	}
	return fmt.Sprintf("%s %s / %s", state.Description,
		humanize.Bytes(uint64(state.Current)), humanize.Bytes(uint64(state.Total)))
}

// PlainProgress prints one line when a stage starts, one per quarter of the
// estimate reached, and one when it ends.
type PlainProgress struct {
	w       io.Writer
	quarter int
}

// NewPlainProgress returns a line-oriented progress surface.
func NewPlainProgress(w io.Writer) *PlainProgress {
	return &PlainProgress{w: w}
}

func (s *PlainProgress) Start(state *types.ProgressState) {
	s.quarter = 0
	_, _ = fmt.Fprintf(s.w, "%s...\n", state.Description)
}

func (s *PlainProgress) Update(state *types.ProgressState) {
	q := int(state.Percent()) / 25
	if q <= s.quarter || q >= 4 {
		return
	}
	s.quarter = q
	_, _ = fmt.Fprintf(s.w, "%s %d%%\n", state.Description, q*25)
}

func (s *PlainProgress) Finish(state *types.ProgressState, result types.StageResult) {
	_, _ = fmt.Fprintf(s.w, "%s (%s)\n", result.Message, amount(state))
}

func amount(state *types.ProgressState) string {
	if state.Unit == "B" {
		return humanize.Bytes(uint64(state.Current))
	}
	return humanize.Comma(state.Current) + state.Unit
}

// TerminalSpinner renders a pterm spinner with the braille glyphs.
type TerminalSpinner struct {
	w       io.Writer
	spinner *pterm.SpinnerPrinter
}

// NewTerminalSpinner returns a spinner surface writing to w.
func NewTerminalSpinner(w io.Writer) *TerminalSpinner {
	return &TerminalSpinner{w: w}
}

func (s *TerminalSpinner) Start(label string) {
	sp, err := pterm.DefaultSpinner.
		WithSequence(Glyphs...).
		WithDelay(TickInterval).
		WithWriter(s.w).
		WithRemoveWhenDone(false).
		Start(label)
	if err != nil {
		s.spinner = nil
		return
	}
	s.spinner = sp
}

func (s *TerminalSpinner) Stop(result types.StageResult) {
	if s.spinner == nil {
		return
	}
	if result.Success {
		s.spinner.Success(result.Message)
	} else {
		s.spinner.Fail(result.Message)
	}
	s.spinner = nil
}

// PlainSpinner prints the outcome only.
type PlainSpinner struct {
	w io.Writer
}

// NewPlainSpinner returns a line-oriented spinner surface.
func NewPlainSpinner(w io.Writer) *PlainSpinner {
	return &PlainSpinner{w: w}
}

func (s *PlainSpinner) Start(string) {}

func (s *PlainSpinner) Stop(result types.StageResult) {
	_, _ = fmt.Fprintln(s.w, result.Message)
}

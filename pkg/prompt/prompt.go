// Package prompt collects the operator's answers before the sequence
// starts: whether the source archive is already on disk and where.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/heainstall/pkg/errors"
)

// Prompter asks the operator for plain strings.
type Prompter interface {
	Ask(question string) (string, error)
	Choose(question string, options []string) (string, error)
}

// LinePrompter reads one answer per line.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter reads answers from in and writes questions to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Ask(question string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, errors.ErrInvalidInput, "no answer")
	}
	return strings.TrimSpace(line), nil
}

func (p *LinePrompter) Choose(question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New(errors.ErrInvalidInput, "nothing to choose from")
	}
	_, _ = fmt.Fprintln(p.out, question)
	for i, opt := range options {
		_, _ = fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	for {
		answer, err := p.Ask(fmt.Sprintf("Select [1-%d]:", len(options)))
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, opt := range options {
			if answer == opt {
				return opt, nil
			}
		}
		_, _ = fmt.Fprintln(p.out, "Invalid choice. Please try again.")
	}
}

// TermPrompter uses pterm's interactive printers.
type TermPrompter struct{}

func (TermPrompter) Ask(question string) (string, error) {
	answer, err := pterm.DefaultInteractiveTextInput.WithDefaultText(question).Show()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInvalidInput, "no answer")
	}
	return strings.TrimSpace(answer), nil
}

func (TermPrompter) Choose(question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New(errors.ErrInvalidInput, "nothing to choose from")
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithDefaultText(question).
		WithOptions(options).
		Show()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInvalidInput, "no choice")
	}
	return choice, nil
}

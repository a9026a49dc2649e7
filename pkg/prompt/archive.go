package prompt

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/arthur-debert/heainstall/pkg/config"
)

const (
	questionDownloaded = "Do you already have heasoft downloaded? [y/n]:"
	questionPath       = "Enter absolute path to the downloaded heasoft file:"
	questionChoose     = "Several files match. Which one is the heasoft archive?"

	invalidInput = "Invalid input. Please try again."
	invalidPath  = "Invalid path. Please try again."
)

// ArchiveAsker decides where the source archive comes from.
type ArchiveAsker struct {
	Prompter  Prompter
	Responses config.Responses
	Fs        afero.Fs
	Out       io.Writer
	Getenv    func(string) string
}

// Ask returns the path of an archive the operator already has. supplied
// is false when the archive must be downloaded. Paths accept ~, $VARS and
// glob patterns; a pattern matching several files is disambiguated by an
// explicit choice.
func (a *ArchiveAsker) Ask() (path string, supplied bool, err error) {
	for {
		reply, err := a.Prompter.Ask(questionDownloaded)
		if err != nil {
			return "", false, err
		}
		switch classify(reply, a.Responses) {
		case answerYes:
			path, err = a.askPath()
			return path, err == nil, err
		case answerNo:
			return "", false, nil
		}
		a.say(invalidInput)
	}
}

func (a *ArchiveAsker) askPath() (string, error) {
	for {
		reply, err := a.Prompter.Ask(questionPath)
		if err != nil {
			return "", err
		}

		matches := a.Matches(reply)
		switch len(matches) {
		case 0:
			a.say(invalidPath)
			continue
		case 1:
			return matches[0], nil
		}
		return a.Prompter.Choose(questionChoose, matches)
	}
}

// Matches expands ~ and $VARS in pattern and returns the regular files it
// globs to, sorted. Relative patterns are resolved against the working
// directory so the result stays valid for stages running elsewhere.
func (a *ArchiveAsker) Matches(pattern string) []string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}
	if pattern == "~" || strings.HasPrefix(pattern, "~/") {
		pattern = filepath.Join(a.Getenv("HOME"), strings.TrimPrefix(pattern, "~"))
	}
	pattern = os.Expand(pattern, a.Getenv)
	if !filepath.IsAbs(pattern) {
		abs, err := filepath.Abs(pattern)
		if err != nil {
			return nil
		}
		pattern = abs
	}

	found, err := afero.Glob(a.Fs, pattern)
	if err != nil {
		return nil
	}
	var files []string
	for _, f := range found {
		if info, err := a.Fs.Stat(f); err == nil && !info.IsDir() {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return files
}

func (a *ArchiveAsker) say(msg string) {
	if a.Out != nil {
		_, _ = fmt.Fprintln(a.Out, msg)
	}
}

type answer int

const (
	answerInvalid answer = iota
	answerYes
	answerNo
)

func classify(s string, r config.Responses) answer {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range r.Positive {
		if s == strings.ToLower(p) {
			return answerYes
		}
	}
	for _, n := range r.Negative {
		if s == strings.ToLower(n) {
			return answerNo
		}
	}
	return answerInvalid
}

package sequencer

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/types"
)

func precondition(stage types.StageID, format string, args ...interface{}) *errors.HeaError {
	return errors.Newf(errors.ErrPreconditionNotMet, format, args...).
		WithDetail("stage", string(stage))
}

func exists(fs afero.Fs, path string) bool {
	ok, err := afero.Exists(fs, path)
	return err == nil && ok
}

func hasContent(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// dirs returns the directories matching pattern, sorted.
func dirs(fs afero.Fs, pattern string) []string {
	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range matches {
		if ok, _ := afero.IsDir(fs, m); ok {
			out = append(out, m)
		}
	}
	return out
}

// one requires exactly one directory to match pattern.
func (s *Sequencer) one(stage types.StageID, pattern, what string) (string, error) {
	found := dirs(s.fs, pattern)
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", precondition(stage, "%s not found (%s)", what, pattern)
	}
	return "", precondition(stage, "%s is ambiguous: %s", what, strings.Join(found, ", ")).
		WithDetail("candidates", found)
}

// sourceDir locates the extracted source tree under the install dir.
func (s *Sequencer) sourceDir(r *run, stage types.StageID) (string, error) {
	return s.one(stage, filepath.Join(r.ictx.InstallDir, s.settings.Source.SourceGlob), "source directory")
}

// configuredBuildDir returns the build dir once configure left its marker.
func (s *Sequencer) configuredBuildDir(r *run, stage types.StageID) (string, error) {
	src, err := s.sourceDir(r, stage)
	if err != nil {
		return "", err
	}
	buildDir := filepath.Join(src, s.settings.Source.BuildDir)
	marker := filepath.Join(buildDir, s.settings.Source.ConfigureMarker)
	if !exists(s.fs, marker) {
		return "", precondition(stage, "configure output %s does not exist", marker)
	}
	return buildDir, nil
}

// installPrefix locates <source>/<arch>-* created by the install stage.
func (s *Sequencer) installPrefix(r *run, stage types.StageID) (string, error) {
	src, err := s.sourceDir(r, stage)
	if err != nil {
		return "", err
	}
	return s.one(stage, filepath.Join(src, r.ictx.Architecture+"-*"), "install directory")
}

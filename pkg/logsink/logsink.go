// Package logsink manages the per-category log files of a run. A file is
// emptied once when the run starts and only appended to afterwards. A
// resumed run keeps the files of the stages it skips.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// Sinks locates the log files under an installation root.
type Sinks struct {
	fs   afero.Fs
	root string
}

// New returns the sinks of root.
func New(fs afero.Fs, root string) *Sinks {
	return &Sinks{fs: fs, root: root}
}

// Root returns the directory holding the log files.
func (s *Sinks) Root() string { return s.root }

// Path returns the file of a category.
func (s *Sinks) Path(c types.LogCategory) string {
	return filepath.Join(s.root, c.FileName())
}

// Init prepares the category files for a run starting at from. Files of
// stages that will run are created empty. When from resumes the sequence,
// the logs of skipped stages and the shared logs keep their content. The
// run id is appended to installer.log.
func (s *Sinks) Init(runID string, from types.StageID) error {
	if err := s.fs.MkdirAll(s.root, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to create %s", s.root)
	}
	for _, c := range types.LogCategories {
		if err := s.prepare(c, from); err != nil {
			return err
		}
	}
	return s.Append(types.LogInstaller, fmt.Sprintf("Initializing run %s", runID))
}

func (s *Sinks) prepare(c types.LogCategory, from types.StageID) error {
	if !keep(c, from) {
		if err := afero.WriteFile(s.fs, s.Path(c), nil, 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to initialize %s", c.FileName())
		}
		return nil
	}
	f, err := s.openAppend(c)
	if err != nil {
		return err
	}
	return f.Close()
}

func keep(c types.LogCategory, from types.StageID) bool {
	start := from.Index()
	if start <= 0 {
		return false
	}
	owner, ok := c.Owner()
	return !ok || owner.Index() < start
}

// Scope is an open {category, error} pair. Close releases both handles.
type Scope struct {
	Out io.Writer
	Err io.Writer

	files []afero.File
}

// Close closes every handle of the scope and returns the first error.
func (sc *Scope) Close() error {
	var first error
	for _, f := range sc.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	sc.files = nil
	return first
}

// Open opens the category file and the shared error log in append mode.
// The error category shares one handle for both streams.
func (s *Sinks) Open(c types.LogCategory) (*Scope, error) {
	out, err := s.openAppend(c)
	if err != nil {
		return nil, err
	}
	if c == types.LogError {
		return &Scope{Out: out, Err: out, files: []afero.File{out}}, nil
	}

	errFile, err := s.openAppend(types.LogError)
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	return &Scope{Out: out, Err: errFile, files: []afero.File{out, errFile}}, nil
}

// Append writes one line to a category file.
func (s *Sinks) Append(c types.LogCategory, line string) error {
	f, err := s.openAppend(c)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintln(f, line); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to write %s", c.FileName())
	}
	return nil
}

func (s *Sinks) openAppend(c types.LogCategory) (afero.File, error) {
	f, err := s.fs.OpenFile(s.Path(c), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", c.FileName())
	}
	return f, nil
}

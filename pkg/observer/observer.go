// Package observer estimates the progress of a running process from the
// growth of a file it writes. The process itself reports nothing; a
// missing target simply means no growth yet.
package observer

import (
	"bytes"
	"io"

	"github.com/spf13/afero"

	"github.com/arthur-debert/heainstall/pkg/errors"
)

// Kind names an observer variant in the stage tables.
type Kind string

const (
	KindLineCount Kind = "line_number"
	KindByteSize  Kind = "file_size"
)

// Observer samples a target file.
type Observer interface {
	// Sample returns the units seen so far. ok is false when the target
	// does not exist yet.
	Sample(target string) (units int64, ok bool)
	// Finalize measures the true total once the process has exited.
	Finalize(target string) (total int64, ok bool)
	Unit() string
}

// ForKind selects the variant named in the configuration.
func ForKind(kind string, fs afero.Fs) (Observer, error) {
	switch Kind(kind) {
	case KindLineCount:
		return NewLineCount(fs), nil
	case KindByteSize:
		return NewByteSize(fs), nil
	}
	return nil, errors.Newf(errors.ErrConfigInvalid, "unknown observer %q", kind)
}

// LineCount counts newline-terminated lines.
type LineCount struct {
	fs afero.Fs
}

// NewLineCount returns a line counting observer.
func NewLineCount(fs afero.Fs) *LineCount {
	return &LineCount{fs: fs}
}

func (l *LineCount) Sample(target string) (int64, bool) {
	f, err := l.fs.Open(target)
	if err != nil {
		return 0, false
	}
	defer func() { _ = f.Close() }()

	n, err := countLines(f)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (l *LineCount) Finalize(target string) (int64, bool) {
	return l.Sample(target)
}

func (l *LineCount) Unit() string { return " ln" }

func countLines(r io.Reader) (int64, error) {
	var count int64
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		count += int64(bytes.Count(buf[:n], []byte{'\n'}))
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
	}
}

// ByteSize reports the size of the target.
type ByteSize struct {
	fs afero.Fs
}

// NewByteSize returns a file size observer.
func NewByteSize(fs afero.Fs) *ByteSize {
	return &ByteSize{fs: fs}
}

func (b *ByteSize) Sample(target string) (int64, bool) {
	info, err := b.fs.Stat(target)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return info.Size(), true
}

func (b *ByteSize) Finalize(target string) (int64, bool) {
	return b.Sample(target)
}

func (b *ByteSize) Unit() string { return "B" }

// Tracker clamps an observer so the reported value never goes backward,
// even when the target shrinks or disappears.
type Tracker struct {
	obs    Observer
	target string
	last   int64
}

// NewTracker follows target with obs.
func NewTracker(obs Observer, target string) *Tracker {
	return &Tracker{obs: obs, target: target}
}

// Sample returns the highest value seen so far.
func (t *Tracker) Sample() int64 {
	if v, ok := t.obs.Sample(t.target); ok && v > t.last {
		t.last = v
	}
	return t.last
}

// Finalize returns the measured total. On a miss the last sample stands in.
func (t *Tracker) Finalize() int64 {
	if v, ok := t.obs.Finalize(t.target); ok {
		return v
	}
	return t.last
}

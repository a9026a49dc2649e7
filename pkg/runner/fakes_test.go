package runner_test

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/arthur-debert/heainstall/pkg/observer"
	"github.com/arthur-debert/heainstall/pkg/runner"
	"github.com/arthur-debert/heainstall/pkg/types"
)

type fakeProcess struct {
	once sync.Once
	done chan struct{}
	code int
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) exit(code int) {
	p.once.Do(func() {
		p.code = code
		close(p.done)
	})
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) ExitCode() int { return p.code }
func (p *fakeProcess) Kill() error {
	p.exit(-1)
	return nil
}

type launch struct {
	Spec types.CommandSpec
	Env  []string
}

type fakeLauncher struct {
	proc     *fakeProcess
	err      error
	launches []launch
}

func (l *fakeLauncher) Launch(spec types.CommandSpec, env []string, stdout, stderr io.Writer) (runner.Process, error) {
	l.launches = append(l.launches, launch{Spec: spec, Env: env})
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

// fakeClock fires every wait immediately and calls onAfter with the
// number of waits so far.
type fakeClock struct {
	now     time.Time
	waits   int
	onAfter func(n int)
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	if c.onAfter != nil {
		c.onAfter(c.waits)
	}
	c.waits++
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type recordingProgress struct {
	started  bool
	updates  []int64
	final    types.ProgressState
	result   types.StageResult
	finished int
}

func (s *recordingProgress) Start(*types.ProgressState) { s.started = true }

func (s *recordingProgress) Update(state *types.ProgressState) {
	s.updates = append(s.updates, state.Current)
}

func (s *recordingProgress) Finish(state *types.ProgressState, result types.StageResult) {
	s.finished++
	s.final = *state
	s.result = result
}

type recordingSpinner struct {
	labels  []string
	results []types.StageResult
}

func (s *recordingSpinner) Start(label string) { s.labels = append(s.labels, label) }
func (s *recordingSpinner) Stop(result types.StageResult) {
	s.results = append(s.results, result)
}

// countingObserver records when Finalize is called relative to exit.
type countingObserver struct {
	inner          observer.Observer
	proc           *fakeProcess
	finalizes      int
	finalizedAlive bool
}

func (o *countingObserver) Sample(target string) (int64, bool) { return o.inner.Sample(target) }

func (o *countingObserver) Unit() string { return o.inner.Unit() }

func (o *countingObserver) Finalize(target string) (int64, bool) {
	o.finalizes++
	select {
	case <-o.proc.Done():
	default:
		o.finalizedAlive = true
	}
	return o.inner.Finalize(target)
}

// trackingFs counts file handles that were opened and not closed.
type trackingFs struct {
	afero.Fs
	mu   sync.Mutex
	open int
}

func (t *trackingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := t.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.open++
	t.mu.Unlock()
	return &trackedFile{File: f, fs: t}, nil
}

func (t *trackingFs) Handles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

type trackedFile struct {
	afero.File
	fs     *trackingFs
	closed bool
}

func (f *trackedFile) Close() error {
	if !f.closed {
		f.closed = true
		f.fs.mu.Lock()
		f.fs.open--
		f.fs.mu.Unlock()
	}
	return f.File.Close()
}

func linesOf(n int) []byte {
	var b []byte
	for i := 0; i < n; i++ {
		b = append(b, []byte(fmt.Sprintf("line %d\n", i))...)
	}
	return b
}

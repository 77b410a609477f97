package workflow

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vid2manga/internal/backend"
	"vid2manga/internal/intake"
	"vid2manga/internal/poller"
)

const testInterval = 20 * time.Millisecond

func writeVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not really frames"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type fakeSubmitter struct {
	calls   atomic.Int32
	gate    chan struct{}
	handle  backend.JobHandle
	err     error
	mu      sync.Mutex
	lastRet time.Time
}

func (f *fakeSubmitter) Submit(ctx context.Context, _ intake.Candidate, _ backend.JobParameters) (backend.JobHandle, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return backend.JobHandle{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.lastRet = time.Now()
	f.mu.Unlock()
	return f.handle, f.err
}

func (f *fakeSubmitter) returnedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRet
}

// fakeFetcher answers status queries from a script, repeating the last entry.
// When gate is set every query blocks until it is closed, ignoring
// cancellation, to model a response that arrives late.
type fakeFetcher struct {
	mu        sync.Mutex
	snapshots []backend.Snapshot
	errs      []error
	calls     []time.Time
	gate      chan struct{}
}

func (f *fakeFetcher) Status(_ context.Context, handle backend.JobHandle) (backend.Snapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	idx := len(f.calls) - 1
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if len(f.errs) > 0 {
		err = f.errs[min(idx, len(f.errs)-1)]
	}
	var snapshot backend.Snapshot
	if len(f.snapshots) > 0 {
		snapshot = f.snapshots[min(idx, len(f.snapshots)-1)]
	}
	snapshot.JobID = handle.ID
	return snapshot, err
}

func (f *fakeFetcher) callTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.calls...)
}

// recordingTracker wraps a real poller and remembers every task it started.
type recordingTracker struct {
	inner *poller.Poller
	mu    sync.Mutex
	tasks []*poller.Task
}

func newRecordingTracker(fetcher poller.StatusFetcher) *recordingTracker {
	return &recordingTracker{inner: poller.New(fetcher, testInterval, nil)}
}

func (r *recordingTracker) Start(ctx context.Context, handle backend.JobHandle, callbacks poller.Callbacks) *poller.Task {
	task := r.inner.Start(ctx, handle, callbacks)
	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	r.mu.Unlock()
	return task
}

func (r *recordingTracker) started() []*poller.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*poller.Task(nil), r.tasks...)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnEvent(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		if e.Kind == EventPhase {
			out = append(out, "phase:"+string(e.State.Phase))
			continue
		}
		out = append(out, string(e.Kind))
	}
	return out
}

func newOrchestrator(t *testing.T, submitter Submitter, tracker Tracker) *Orchestrator {
	t.Helper()
	o, err := New(Options{Submitter: submitter, Tracker: tracker})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(o.Close)
	return o
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitTerminal(t *testing.T, o *Orchestrator) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	state, err := o.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v (phase %s)", err, state.Phase)
	}
	return state
}

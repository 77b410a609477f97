package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"vid2manga/internal/backend"
	"vid2manga/internal/logging"
	"vid2manga/internal/services"
)

// DefaultInterval is the cadence used when none is configured.
const DefaultInterval = 2 * time.Second

// StatusFetcher performs a single status query.
type StatusFetcher interface {
	Status(ctx context.Context, handle backend.JobHandle) (backend.Snapshot, error)
}

// Callbacks receive task progress. Snapshot is invoked for every non-terminal
// status; Done is invoked at most once, when the task ends by itself. Neither
// is invoked after Cancel.
type Callbacks struct {
	Snapshot func(backend.Snapshot)
	Done     func(Outcome)
}

// Outcome is the terminal result of a task. Exactly one of Result and Err is
// set.
type Outcome struct {
	Handle   backend.JobHandle
	Snapshot backend.Snapshot
	Result   *backend.Result
	Err      error
}

// Succeeded reports whether the job completed.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// Poller starts status polling tasks.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	logger   *slog.Logger
}

// New builds a Poller. A non-positive interval selects DefaultInterval.
func New(fetcher StatusFetcher, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "poller"),
	}
}

// Interval returns the polling cadence.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins polling handle. The task stops when ctx is cancelled.
func (p *Poller) Start(ctx context.Context, handle backend.JobHandle, callbacks Callbacks) *Task {
	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		handle: handle,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	logger := logging.WithContext(services.WithJobID(ctx, handle.ID), p.logger)
	logger.Debug("polling started", logging.Duration("interval", p.interval))
	go task.run(taskCtx, p.fetcher, p.interval, callbacks, logger)
	return task
}

// Task is one running poll loop.
type Task struct {
	handle    backend.JobHandle
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled atomic.Bool
	queries   atomic.Int64
	once      sync.Once
}

// Handle returns the job being polled.
func (t *Task) Handle() backend.JobHandle {
	return t.handle
}

// Cancel stops the task. It never blocks and may be called any number of
// times. No query is issued after it returns and a response still in flight
// is discarded.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.cancelled.Store(true)
		t.cancel()
	})
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Wait blocks until the task goroutine has exited.
func (t *Task) Wait() {
	if t == nil {
		return
	}
	<-t.done
}

// Done is closed when the task goroutine exits.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Queries returns the number of status queries issued so far.
func (t *Task) Queries() int {
	return int(t.queries.Load())
}

func (t *Task) run(ctx context.Context, fetcher StatusFetcher, interval time.Duration, callbacks Callbacks, logger *slog.Logger) {
	defer close(t.done)
	defer t.cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if t.cancelled.Load() {
			return
		}

		t.queries.Add(1)
		snapshot, err := fetcher.Status(ctx, t.handle)
		if t.cancelled.Load() || ctx.Err() != nil {
			logger.Debug("discarding response after cancellation")
			return
		}

		// Drop a tick that arrived during the query.
		select {
		case <-ticker.C:
		default:
		}

		if err != nil {
			if !errors.Is(err, services.ErrPollingFailed) {
				err = services.Wrap(services.ErrPollingFailed, "poller", "query status", "", err)
			}
			logger.Warn("status query failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "status_query_failed"),
				logging.String(logging.FieldErrorHint, "check that the conversion backend is reachable"),
			)
			t.finish(callbacks, Outcome{Handle: t.handle, Err: err})
			return
		}

		switch snapshot.Status {
		case backend.StatusCompleted:
			if snapshot.Result == nil {
				err := services.Wrap(services.ErrPollingFailed, "poller", "query status", "completed job has no result", nil)
				t.finish(callbacks, Outcome{Handle: t.handle, Snapshot: snapshot, Err: err})
				return
			}
			logger.Debug("job completed", logging.Int("queries", t.Queries()))
			t.finish(callbacks, Outcome{Handle: t.handle, Snapshot: snapshot, Result: snapshot.Result})
			return
		case backend.StatusFailed:
			failure := &services.BackendError{JobID: t.handle.ID, Message: snapshot.Error}
			logger.Debug("job failed", logging.String("backend_error", snapshot.Error))
			t.finish(callbacks, Outcome{Handle: t.handle, Snapshot: snapshot, Err: failure})
			return
		default:
			if callbacks.Snapshot != nil {
				callbacks.Snapshot(snapshot)
			}
		}
	}
}

func (t *Task) finish(callbacks Callbacks, outcome Outcome) {
	if t.cancelled.Load() || callbacks.Done == nil {
		return
	}
	callbacks.Done(outcome)
}

package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vid2manga/internal/backend"
	"vid2manga/internal/intake"
	"vid2manga/internal/logging"
	"vid2manga/internal/poller"
	"vid2manga/internal/services"
)

// Options configures an Orchestrator.
type Options struct {
	Submitter Submitter
	Tracker   Tracker
	Logger    *slog.Logger
	// Now and NewAttemptID default to time.Now and uuid.NewString.
	Now          func() time.Time
	NewAttemptID func() string
}

// Orchestrator owns the workflow state machine for a single user session.
type Orchestrator struct {
	submitter Submitter
	tracker   Tracker
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu        sync.Mutex
	state     State
	task      *poller.Task
	changed   chan struct{}
	closed    bool
	observers []Observer
	outbox    []Event
	emitted   uint64
	delivered uint64

	flushMu sync.Mutex
}

// New builds an Orchestrator in the idle phase.
func New(opts Options) (*Orchestrator, error) {
	if opts.Submitter == nil {
		return nil, errors.New("workflow: submitter is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("workflow: tracker is required")
	}
	o := &Orchestrator{
		submitter: opts.Submitter,
		tracker:   opts.Tracker,
		logger:    logging.NewComponentLogger(opts.Logger, "workflow"),
		now:       opts.Now,
		newID:     opts.NewAttemptID,
		state:     State{Phase: PhaseIdle},
		changed:   make(chan struct{}),
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	o.baseCtx, o.baseCancel = context.WithCancel(context.Background())
	return o, nil
}

// Subscribe registers an observer for all subsequent events.
func (o *Orchestrator) Subscribe(observer Observer) {
	if observer == nil {
		return
	}
	o.mu.Lock()
	o.observers = append(o.observers, observer)
	o.mu.Unlock()
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Select inspects path and, when it is a video, makes it the candidate for a
// new attempt. A non-video file leaves the phase and the current candidate
// untouched and only records the rejection message. While an attempt is in
// flight the rejection is returned but not recorded.
func (o *Orchestrator) Select(path string, source intake.Source) error {
	candidate, err := intake.Inspect(path, source)
	if err != nil {
		return err
	}
	return o.SelectCandidate(candidate)
}

// SelectCandidate is Select for an already inspected file.
func (o *Orchestrator) SelectCandidate(candidate intake.Candidate) error {
	if err := intake.Validate(candidate); err != nil {
		o.mu.Lock()
		if !o.state.Phase.Active() {
			o.state.ErrorMessage = services.UserMessage(err)
			o.state.ErrorKind = services.Kind(err)
			o.touchLocked()
		}
		o.mu.Unlock()
		o.logger.Info("file rejected",
			logging.String("file", candidate.Name),
			logging.String("media_type", candidate.MediaType),
			logging.String(logging.FieldEventType, "file_rejected"),
		)
		return err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	task := o.resetLocked(candidate)
	o.mu.Unlock()
	task.Cancel()
	o.flush()

	o.logger.Debug("file selected",
		logging.String("file", candidate.Name),
		logging.String("media_type", candidate.MediaType),
		logging.Int64("size_bytes", candidate.Size),
		logging.String("source", string(candidate.Source)),
	)
	return nil
}

// Clear drops the candidate and returns to idle.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	task := o.resetLocked(intake.Candidate{})
	o.mu.Unlock()
	task.Cancel()
	o.flush()
}

// Reset abandons the current attempt. The candidate is kept, so the phase
// becomes file-selected, or idle when nothing was selected.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	task := o.resetLocked(o.state.Candidate)
	o.mu.Unlock()
	task.Cancel()
	o.flush()
}

// Wait blocks until no attempt is in flight and every event emitted so far
// has reached the observers, then returns the resulting state. It must not be
// called from an observer.
func (o *Orchestrator) Wait(ctx context.Context) (State, error) {
	for {
		o.mu.Lock()
		if !o.state.Phase.Active() && o.delivered == o.emitted {
			state := o.state.clone()
			o.mu.Unlock()
			return state, nil
		}
		changed := o.changed
		o.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return o.State(), ctx.Err()
		}
	}
}

// Close cancels any running poll task, waits for it to exit, and rejects
// further attempts. An attempt still in flight is failed as cancelled and
// that event reaches the observers before the task is torn down. It must not
// be called from an observer.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	task := o.task
	o.task = nil
	var abandoned error
	if o.state.Phase.Active() {
		abandoned = services.Wrap(services.ErrCancelled, "workflow", "close", "attempt abandoned in phase "+string(o.state.Phase), nil)
		o.failLocked(abandoned)
	}
	attemptID := o.state.AttemptID
	o.mu.Unlock()
	o.flush()

	if abandoned != nil {
		o.logger.Info("attempt cancelled",
			logging.AttemptID(attemptID),
			logging.String(logging.FieldEventType, "attempt_cancelled"),
		)
	}
	o.baseCancel()
	task.Cancel()
	task.Wait()
}

// resetLocked starts a fresh attempt context around candidate and returns the
// task the caller must cancel after releasing the lock.
func (o *Orchestrator) resetLocked(candidate intake.Candidate) *poller.Task {
	task := o.task
	o.task = nil
	if task != nil {
		o.logger.Debug("cancelling poll task for abandoned attempt",
			logging.AttemptID(o.state.AttemptID),
			logging.JobID(task.Handle().ID),
		)
	}
	phase := PhaseIdle
	if !candidate.IsZero() {
		phase = PhaseFileSelected
	}
	previous := o.state.Phase
	o.state = State{Phase: phase, Candidate: candidate}
	o.touchLocked()
	if previous != phase {
		o.emitLocked(EventPhase, nil)
	}
	return task
}

func (o *Orchestrator) setPhaseLocked(phase Phase) {
	o.state.Phase = phase
	o.touchLocked()
	o.emitLocked(EventPhase, nil)
}

// touchLocked wakes Wait callers.
func (o *Orchestrator) touchLocked() {
	close(o.changed)
	o.changed = make(chan struct{})
}

func (o *Orchestrator) emitLocked(kind EventKind, err error) {
	o.outbox = append(o.outbox, Event{Kind: kind, State: o.state.clone(), Err: err, At: o.now()})
	o.emitted++
}

// flush delivers queued events. Only one goroutine drains at a time; a
// goroutine that finds the drain busy leaves its events to the active
// drainer, which re-checks the outbox before returning.
func (o *Orchestrator) flush() {
	for {
		if !o.flushMu.TryLock() {
			return
		}
		o.mu.Lock()
		events := o.outbox
		o.outbox = nil
		observers := append([]Observer(nil), o.observers...)
		o.mu.Unlock()

		for _, event := range events {
			for _, observer := range observers {
				observer.OnEvent(event)
			}
		}
		o.flushMu.Unlock()

		o.mu.Lock()
		o.delivered += uint64(len(events))
		if len(events) > 0 {
			o.touchLocked()
		}
		pending := len(o.outbox) > 0
		o.mu.Unlock()
		if !pending {
			return
		}
	}
}

func (o *Orchestrator) isCurrentLocked(attemptID string) bool {
	return attemptID != "" && attemptID == o.state.AttemptID
}

func (o *Orchestrator) dropStale(attemptID, what string) {
	o.logger.Debug("dropping stale response",
		logging.AttemptID(attemptID),
		logging.String("response", what),
	)
}

var _ Tracker = (*poller.Poller)(nil)
var _ Submitter = (*backend.Client)(nil)

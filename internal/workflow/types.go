package workflow

import (
	"context"
	"errors"
	"time"

	"vid2manga/internal/backend"
	"vid2manga/internal/intake"
	"vid2manga/internal/poller"
)

// Phase is the orchestrator lifecycle label.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseFileSelected Phase = "file-selected"
	PhaseSubmitting   Phase = "submitting"
	PhasePolling      Phase = "polling"
	PhaseSucceeded    Phase = "succeeded"
	PhaseFailed       Phase = "failed"
)

// Active reports whether an attempt is in flight.
func (p Phase) Active() bool {
	return p == PhaseSubmitting || p == PhasePolling
}

// Terminal reports whether the attempt has finished.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

var (
	// ErrAttemptInFlight is returned by Start while submitting or polling.
	ErrAttemptInFlight = errors.New("an attempt is already in progress")
	// ErrNoCandidate is returned by Start when no file is selected.
	ErrNoCandidate = errors.New("no video file selected")
	// ErrAttemptFinished is returned by Start after an attempt ended; Select or
	// Reset begins the next one.
	ErrAttemptFinished = errors.New("attempt already finished; reset or select a file to start again")
	// ErrClosed is returned once the orchestrator has been closed.
	ErrClosed = errors.New("workflow orchestrator closed")
)

// State is a copy of the orchestrator's UI-visible state.
type State struct {
	Phase        Phase
	AttemptID    string
	Candidate    intake.Candidate
	Parameters   backend.JobParameters
	Handle       backend.JobHandle
	LastSnapshot *backend.Snapshot
	ErrorMessage string
	ErrorKind    string
	Result       *backend.Result
	StartedAt    time.Time
	FinishedAt   time.Time
}

// HasCandidate reports whether a file is selected.
func (s State) HasCandidate() bool {
	return !s.Candidate.IsZero()
}

func (s State) clone() State {
	out := s
	if s.LastSnapshot != nil {
		snap := *s.LastSnapshot
		if snap.Result != nil {
			result := *snap.Result
			snap.Result = &result
		}
		out.LastSnapshot = &snap
	}
	if s.Result != nil {
		result := *s.Result
		out.Result = &result
	}
	return out
}

// EventKind names an outbound notification.
type EventKind string

const (
	EventPhase            EventKind = "phase"
	EventAttemptStarted   EventKind = "attempt-started"
	EventJobStatus        EventKind = "job-status"
	EventAttemptSucceeded EventKind = "attempt-succeeded"
	EventAttemptFailed    EventKind = "attempt-failed"
)

// Event is delivered to observers. State is the orchestrator state at the
// moment the event was emitted; Err is set on attempt-failed.
type Event struct {
	Kind  EventKind
	State State
	Err   error
	At    time.Time
}

// Observer receives orchestrator events.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Submitter creates a backend job. *backend.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, candidate intake.Candidate, params backend.JobParameters) (backend.JobHandle, error)
}

// Tracker starts status polling. *poller.Poller implements it. Start is
// called with the orchestrator lock held and must deliver callbacks from
// another goroutine.
type Tracker interface {
	Start(ctx context.Context, handle backend.JobHandle, callbacks poller.Callbacks) *poller.Task
}

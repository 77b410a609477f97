package history

import (
	"context"
	"log/slog"
	"time"

	"vid2manga/internal/logging"
	"vid2manga/internal/workflow"
)

const recordTimeout = 5 * time.Second

// Recorder persists attempts as workflow events arrive.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder builds a Recorder writing to store.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logging.NewComponentLogger(logger, "history")}
}

// OnEvent implements workflow.Observer. Events outside an attempt, such as
// file selection, are ignored. Write failures are logged and never surface
// to the workflow.
func (r *Recorder) OnEvent(event workflow.Event) {
	if r == nil || r.store == nil || event.State.AttemptID == "" {
		return
	}
	switch event.Kind {
	case workflow.EventAttemptStarted, workflow.EventPhase, workflow.EventJobStatus:
	default:
		// Terminal phase events already carry the final state.
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.store.Record(ctx, FromState(event.State, event.At)); err != nil {
		logging.WarnWithContext(r.logger, "failed to record attempt history", "history_write_failed",
			logging.AttemptID(event.State.AttemptID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on "+r.store.Path()),
			logging.String(logging.FieldImpact, "attempt will be missing from history"),
		)
	}
}

// FromState converts an orchestrator state into a history row.
func FromState(state workflow.State, at time.Time) Attempt {
	if at.IsZero() {
		at = time.Now()
	}
	attempt := Attempt{
		ID:           state.AttemptID,
		FileName:     state.Candidate.Name,
		FilePath:     state.Candidate.Path,
		MediaType:    state.Candidate.MediaType,
		SizeBytes:    state.Candidate.Size,
		Source:       string(state.Candidate.Source),
		Language:     state.Parameters.Language,
		JobID:        state.Handle.ID,
		Phase:        string(state.Phase),
		ErrorKind:    state.ErrorKind,
		ErrorMessage: state.ErrorMessage,
		StartedAt:    state.StartedAt,
		UpdatedAt:    at,
	}
	if state.LastSnapshot != nil {
		attempt.LastStatus = string(state.LastSnapshot.Status)
	}
	if state.Result != nil {
		attempt.VideoURL = state.Result.VideoURL
		attempt.AudioURL = state.Result.AudioURL
		attempt.Text = state.Result.Text
	}
	if state.Phase.Terminal() && !state.FinishedAt.IsZero() {
		finished := state.FinishedAt
		attempt.FinishedAt = &finished
	}
	return attempt
}

var _ workflow.Observer = (*Recorder)(nil)

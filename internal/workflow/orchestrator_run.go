package workflow

import (
	"context"
	"errors"
	"log/slog"

	"vid2manga/internal/backend"
	"vid2manga/internal/logging"
	"vid2manga/internal/poller"
	"vid2manga/internal/services"
)

// Start submits the selected file and begins polling. It is allowed only in
// the file-selected phase. The submission runs on the caller's goroutine;
// Start returns once the job is created (or creation failed) and polling
// continues in the background. A nil error means an attempt was started; its
// eventual outcome is reported through events, State, and Wait.
func (o *Orchestrator) Start(ctx context.Context, params backend.JobParameters) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	switch o.state.Phase {
	case PhaseFileSelected:
	case PhaseSubmitting, PhasePolling:
		o.mu.Unlock()
		return ErrAttemptInFlight
	case PhaseSucceeded, PhaseFailed:
		o.mu.Unlock()
		return ErrAttemptFinished
	default:
		o.mu.Unlock()
		return ErrNoCandidate
	}

	normalized, err := params.Normalize()
	if err != nil {
		o.state.ErrorMessage = services.UserMessage(err)
		o.state.ErrorKind = services.Kind(err)
		o.touchLocked()
		o.mu.Unlock()
		return err
	}

	attemptID := o.newID()
	candidate := o.state.Candidate
	o.state = State{
		Phase:      PhaseSubmitting,
		AttemptID:  attemptID,
		Candidate:  candidate,
		Parameters: normalized,
		StartedAt:  o.now(),
	}
	o.touchLocked()
	o.emitLocked(EventPhase, nil)
	o.emitLocked(EventAttemptStarted, nil)
	o.mu.Unlock()
	o.flush()

	ctx = services.WithAttemptID(ctx, attemptID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("attempt started",
		logging.String("file", candidate.Name),
		logging.String("size", candidate.SizeMB()),
		logging.String("language", normalized.Language),
	)

	handle, submitErr := o.submitter.Submit(ctx, candidate, normalized)

	o.mu.Lock()
	if !o.isCurrentLocked(attemptID) || o.state.Phase != PhaseSubmitting {
		o.mu.Unlock()
		o.dropStale(attemptID, "submission")
		return nil
	}
	if submitErr != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			submitErr = services.Wrap(services.ErrCancelled, "workflow", "submit", "upload interrupted", submitErr)
		}
		o.failLocked(submitErr)
		o.mu.Unlock()
		o.flush()
		o.logFailure(logger, submitErr)
		return nil
	}

	o.state.Handle = handle
	pollCtx := services.WithJobID(services.WithAttemptID(o.baseCtx, attemptID), handle.ID)
	o.task = o.tracker.Start(pollCtx, handle, poller.Callbacks{
		Snapshot: func(snapshot backend.Snapshot) { o.handleSnapshot(attemptID, snapshot) },
		Done:     func(outcome poller.Outcome) { o.handleOutcome(attemptID, outcome) },
	})
	o.setPhaseLocked(PhasePolling)
	o.mu.Unlock()
	o.flush()

	logging.WithContext(services.WithJobID(ctx, handle.ID), o.logger).Info("job submitted, polling for status")
	return nil
}

func (o *Orchestrator) handleSnapshot(attemptID string, snapshot backend.Snapshot) {
	o.mu.Lock()
	if !o.isCurrentLocked(attemptID) || o.state.Phase != PhasePolling {
		o.mu.Unlock()
		o.dropStale(attemptID, "status snapshot")
		return
	}
	o.state.LastSnapshot = &snapshot
	o.touchLocked()
	o.emitLocked(EventJobStatus, nil)
	o.mu.Unlock()
	o.flush()
}

func (o *Orchestrator) handleOutcome(attemptID string, outcome poller.Outcome) {
	o.mu.Lock()
	if !o.isCurrentLocked(attemptID) || o.state.Phase != PhasePolling {
		o.mu.Unlock()
		o.dropStale(attemptID, "poll outcome")
		return
	}
	o.task = nil
	if outcome.Snapshot.Status != "" {
		snapshot := outcome.Snapshot
		o.state.LastSnapshot = &snapshot
	}

	ctx := services.WithJobID(services.WithAttemptID(context.Background(), attemptID), outcome.Handle.ID)
	logger := logging.WithContext(ctx, o.logger)

	if outcome.Err != nil || outcome.Result == nil {
		err := outcome.Err
		if err == nil {
			err = services.Wrap(services.ErrPollingFailed, "workflow", "poll outcome", "no result", nil)
		}
		o.failLocked(err)
		o.mu.Unlock()
		o.flush()
		o.logFailure(logger, err)
		return
	}

	result := *outcome.Result
	o.state.Result = &result
	o.state.ErrorMessage = ""
	o.state.ErrorKind = ""
	o.state.FinishedAt = o.now()
	o.setPhaseLocked(PhaseSucceeded)
	o.emitLocked(EventAttemptSucceeded, nil)
	duration := o.state.FinishedAt.Sub(o.state.StartedAt)
	o.mu.Unlock()
	o.flush()

	logger.Info("attempt succeeded",
		logging.String("video_url", result.VideoURL),
		logging.String("audio_url", result.AudioURL),
		logging.Int("text_chars", len([]rune(result.Text))),
		logging.Duration("elapsed", duration),
	)
}

func (o *Orchestrator) failLocked(err error) {
	o.state.ErrorMessage = services.UserMessage(err)
	o.state.ErrorKind = services.Kind(err)
	o.state.FinishedAt = o.now()
	o.setPhaseLocked(PhaseFailed)
	o.emitLocked(EventAttemptFailed, err)
}

func (o *Orchestrator) logFailure(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "attempt failed", services.Kind(err),
		logging.Error(err),
		logging.String("user_message", services.UserMessage(err)),
		logging.String(logging.FieldErrorHint, failureHint(err)),
		logging.String(logging.FieldImpact, "conversion did not produce results"),
	)
}

func failureHint(err error) string {
	switch services.Kind(err) {
	case "submission_failed":
		return "check that the backend is running and accepts uploads"
	case "backend_reported_failure":
		return "inspect the backend logs for the job"
	default:
		return "check backend reachability and retry"
	}
}

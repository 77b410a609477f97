package history_test

import (
	"context"
	"testing"
	"time"

	"vid2manga/internal/backend"
	"vid2manga/internal/history"
	"vid2manga/internal/intake"
	"vid2manga/internal/logging"
	"vid2manga/internal/testsupport"
	"vid2manga/internal/workflow"
)

func TestRecorderTracksAttemptLifecycle(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	recorder := history.NewRecorder(store, logging.NewNop())

	started := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	state := workflow.State{
		Phase:      workflow.PhaseSubmitting,
		AttemptID:  "attempt-1",
		Candidate:  intake.Candidate{Path: "/videos/clip.mp4", Name: "clip.mp4", MediaType: "video/mp4", Size: 10, Source: intake.SourceDrop},
		Parameters: backend.JobParameters{Language: "vi"},
		StartedAt:  started,
	}
	recorder.OnEvent(workflow.Event{Kind: workflow.EventAttemptStarted, State: state, At: started})

	state.Phase = workflow.PhasePolling
	state.Handle = backend.JobHandle{ID: "abc123", SubmittedAt: started}
	recorder.OnEvent(workflow.Event{Kind: workflow.EventPhase, State: state, At: started.Add(time.Second)})

	state.LastSnapshot = &backend.Snapshot{JobID: "abc123", Status: backend.StatusProcessing}
	recorder.OnEvent(workflow.Event{Kind: workflow.EventJobStatus, State: state, At: started.Add(3 * time.Second)})

	finished := started.Add(5 * time.Second)
	state.Phase = workflow.PhaseSucceeded
	state.LastSnapshot = &backend.Snapshot{JobID: "abc123", Status: backend.StatusCompleted}
	state.Result = &backend.Result{VideoURL: "http://localhost:8000/out/v.mp4", AudioURL: "http://localhost:8000/out/a.mp3", Text: "chào"}
	state.FinishedAt = finished
	recorder.OnEvent(workflow.Event{Kind: workflow.EventPhase, State: state, At: finished})
	recorder.OnEvent(workflow.Event{Kind: workflow.EventAttemptSucceeded, State: state, At: finished})

	got, err := store.Get(context.Background(), "attempt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Phase != "succeeded" || got.JobID != "abc123" || got.LastStatus != "completed" {
		t.Fatalf("unexpected attempt %+v", got)
	}
	if got.Language != "vi" || got.Source != "drop" || got.VideoURL != state.Result.VideoURL {
		t.Fatalf("unexpected attempt details %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Fatalf("finished at = %v", got.FinishedAt)
	}
}

func TestRecorderIgnoresEventsOutsideAttempt(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	recorder := history.NewRecorder(store, nil)

	recorder.OnEvent(workflow.Event{
		Kind:  workflow.EventPhase,
		State: workflow.State{Phase: workflow.PhaseFileSelected, Candidate: intake.Candidate{Path: "/v.mp4", Name: "v.mp4"}},
	})

	attempts, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("expected no attempts, got %d", len(attempts))
	}
}

func TestFromStateFailedAttempt(t *testing.T) {
	finished := time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)
	attempt := history.FromState(workflow.State{
		Phase:        workflow.PhaseFailed,
		AttemptID:    "attempt-9",
		ErrorKind:    "backend_reported_failure",
		ErrorMessage: "Processing failed: decode error",
		FinishedAt:   finished,
	}, finished)

	if attempt.ErrorMessage != "Processing failed: decode error" || attempt.FinishedAt == nil {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if attempt.VideoURL != "" || attempt.LastStatus != "" {
		t.Fatalf("failed attempt should carry no result: %+v", attempt)
	}
}

package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"vid2manga/internal/history"
	"vid2manga/internal/testsupport"
)

func sampleAttempt(id string, started time.Time) history.Attempt {
	return history.Attempt{
		ID:        id,
		FileName:  "clip.mp4",
		FilePath:  "/videos/clip.mp4",
		MediaType: "video/mp4",
		SizeBytes: 2048,
		Source:    "picker",
		Language:  "en",
		Phase:     "submitting",
		StartedAt: started,
		UpdatedAt: started,
	}
}

func TestRecordAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	attempt := sampleAttempt("3f1c2a9e-0000-4000-8000-000000000001", started)
	if err := store.Record(ctx, attempt); err != nil {
		t.Fatalf("Record: %v", err)
	}

	finished := started.Add(42 * time.Second)
	attempt.JobID = "abc123"
	attempt.Phase = "succeeded"
	attempt.LastStatus = "completed"
	attempt.VideoURL = "http://localhost:8000/out/v.mp4"
	attempt.AudioURL = "http://localhost:8000/out/a.mp3"
	attempt.Text = "xin chào"
	attempt.UpdatedAt = finished
	attempt.FinishedAt = &finished
	if err := store.Record(ctx, attempt); err != nil {
		t.Fatalf("Record update: %v", err)
	}

	got, err := store.Get(ctx, "3F1C2A9E")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(&attempt, got); diff != "" {
		t.Fatalf("attempt mismatch (-want +got):\n%s", diff)
	}
	if got.Duration() != 42*time.Second || !got.Finished() {
		t.Fatalf("duration=%s finished=%v", got.Duration(), got.Finished())
	}
}

func TestRecordKeepsJobIDWhenLaterUpdateOmitsIt(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	started := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	attempt := sampleAttempt("a1", started)
	attempt.JobID = "abc123"
	attempt.Phase = "polling"
	if err := store.Record(ctx, attempt); err != nil {
		t.Fatalf("Record: %v", err)
	}
	attempt.JobID = ""
	attempt.Phase = "failed"
	attempt.ErrorMessage = "Error checking task status."
	if err := store.Record(ctx, attempt); err != nil {
		t.Fatalf("Record update: %v", err)
	}

	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.JobID != "abc123" || got.Phase != "failed" || got.ErrorMessage != "Error checking task status." {
		t.Fatalf("unexpected attempt %+v", got)
	}
}

func TestGetPrefixErrors(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	started := time.Now()
	for _, id := range []string{"abc-1", "abc-2", "def-1"} {
		if err := store.Record(ctx, sampleAttempt(id, started)); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	if _, err := store.Get(ctx, "abc"); !errors.Is(err, history.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	if _, err := store.Get(ctx, "zzz"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, " "); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty prefix, got %v", err)
	}
	if got, err := store.Get(ctx, "def"); err != nil || got.ID != "def-1" {
		t.Fatalf("Get def = %+v, %v", got, err)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	// Sub-second offsets check that stored timestamps sort chronologically.
	offsets := []time.Duration{0, 500 * time.Millisecond, time.Second, 1500 * time.Millisecond}
	for i, offset := range offsets {
		attempt := sampleAttempt(string(rune('a'+i)), base.Add(offset))
		if i%2 == 0 {
			attempt.Phase = "succeeded"
		} else {
			attempt.Phase = "failed"
		}
		if err := store.Record(ctx, attempt); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := make([]string, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	if diff := cmp.Diff([]string{"d", "c", "b", "a"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "d" {
		t.Fatalf("limited list = %+v", limited)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"succeeded": 2, "failed": 2}, stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRequiresID(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	if err := store.Record(context.Background(), history.Attempt{}); err == nil {
		t.Fatal("expected error for attempt without id")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	if err := store.Record(context.Background(), sampleAttempt("persisted", time.Now())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	reopened := testsupport.MustOpenHistory(t, cfg)
	if _, err := reopened.Get(context.Background(), "persisted"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

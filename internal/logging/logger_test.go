package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vid2manga/internal/config"
	"vid2manga/internal/services"
)

func newTestPretty(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(buf, lvl, false))
}

func TestPrettyHandlerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestPretty(&buf, slog.LevelInfo), "poller")

	logger.Info("status received", String(FieldJobID, "abc123"), String("status", "processing"), String("note", "two words"))

	line := buf.String()
	if !strings.Contains(line, " INFO poller: status received") {
		t.Fatalf("missing level/component/message: %q", line)
	}
	if !strings.Contains(line, "job_id=abc123") || !strings.Contains(line, "status=processing") {
		t.Fatalf("missing fields: %q", line)
	}
	if !strings.Contains(line, `note="two words"`) {
		t.Fatalf("expected quoted value: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix only: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected trailing newline: %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), " WARN shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestPrettyHandlerGroupsFlattenKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo).WithGroup("result")

	logger.Info("done", String("video_url", "http://localhost:8000/out/v.mp4"))

	if !strings.Contains(buf.String(), "result.video_url=http://localhost:8000/out/v.mp4") {
		t.Fatalf("expected grouped key, got %q", buf.String())
	}
}

func TestJSONHandlerRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))

	logger.Warn("submission failed", Error(errors.New("boom")))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("level = %v", payload["level"])
	}
	if payload["msg"] != "submission failed" {
		t.Fatalf("msg = %v", payload["msg"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
	if payload["error"] != "boom" {
		t.Fatalf("error = %v", payload["error"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.log")
	logger, err := New(Options{Level: "debug", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("unexpected log contents %q", data)
	}
	if !strings.Contains(string(data), `"source":"logger_test.go:`) {
		t.Fatalf("expected source at debug level, got %q", data)
	}
}

func TestNewFromConfigCreatesLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Error("persisted")

	data, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "persisted") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := newTestPretty(&buf, slog.LevelInfo)

	ctx := services.WithAttemptID(context.Background(), "attempt-1")
	ctx = services.WithJobID(ctx, "abc123")
	ctx = services.WithRequestID(ctx, "req-9")

	WithContext(ctx, base).Info("polling")

	out := buf.String()
	for _, want := range []string{"attempt_id=attempt-1", "job_id=abc123", "correlation_id=req-9"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	base := NewNop()
	if got := WithContext(context.Background(), base); got != base {
		t.Fatal("expected logger to be returned unchanged")
	}
	if WithContext(context.Background(), nil) == nil {
		t.Fatal("expected nop logger for nil input")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)

	WarnWithContext(logger, "notification skipped", "notify_failed", String(FieldErrorHint, "check ntfy topic"))

	out := buf.String()
	if !strings.Contains(out, "event_type=notify_failed") {
		t.Fatalf("missing event type: %q", out)
	}
	if !strings.Contains(out, `error_hint="check ntfy topic"`) {
		t.Fatalf("caller hint should win: %q", out)
	}
	if strings.Count(out, "error_hint=") != 1 {
		t.Fatalf("hint duplicated: %q", out)
	}
	if !strings.Contains(out, "impact=") {
		t.Fatalf("missing impact default: %q", out)
	}
}

func TestWarnWithContextNilLogger(t *testing.T) {
	WarnWithContext(nil, "ignored", "none")
}

func TestAttemptAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)

	logger.Info("state", Args(AttemptID("attempt-1"), JobID("abc123"), Phase("polling"))...)

	out := buf.String()
	for _, want := range []string{"attempt_id=attempt-1", "job_id=abc123", "phase=polling"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

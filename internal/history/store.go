package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vid2manga/internal/config"
)

var (
	// ErrNotFound is returned when no attempt matches an id prefix.
	ErrNotFound = errors.New("attempt not found")
	// ErrAmbiguous is returned when an id prefix matches several attempts.
	ErrAmbiguous = errors.New("attempt id prefix is ambiguous")
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	attemptColumns = "id, file_name, file_path, media_type, size_bytes, source, language, job_id, phase, last_status, video_url, audio_url, result_text, error_kind, error_message, started_at, updated_at, finished_at"
)

// Store manages attempt history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the history database configured in cfg, creating it if needed.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryDBPath())
}

// OpenPath opens a history database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts or updates an attempt keyed by its id.
func (s *Store) Record(ctx context.Context, attempt Attempt) error {
	if strings.TrimSpace(attempt.ID) == "" {
		return errors.New("record attempt: id is required")
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now()
	}
	if attempt.UpdatedAt.IsZero() {
		attempt.UpdatedAt = time.Now()
	}
	return s.execWithRetry(ctx, `INSERT INTO attempts (`+attemptColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            job_id = COALESCE(excluded.job_id, attempts.job_id),
            phase = excluded.phase,
            last_status = COALESCE(excluded.last_status, attempts.last_status),
            video_url = excluded.video_url,
            audio_url = excluded.audio_url,
            result_text = excluded.result_text,
            error_kind = excluded.error_kind,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at,
            finished_at = excluded.finished_at`,
		attempt.ID,
		attempt.FileName,
		attempt.FilePath,
		attempt.MediaType,
		attempt.SizeBytes,
		attempt.Source,
		attempt.Language,
		nullableString(attempt.JobID),
		attempt.Phase,
		nullableString(attempt.LastStatus),
		nullableString(attempt.VideoURL),
		nullableString(attempt.AudioURL),
		nullableString(attempt.Text),
		nullableString(attempt.ErrorKind),
		nullableString(attempt.ErrorMessage),
		formatTime(attempt.StartedAt),
		formatTime(attempt.UpdatedAt),
		nullableTime(attempt.FinishedAt),
	)
}

// Get returns the attempt whose id starts with prefix.
func (s *Store) Get(ctx context.Context, prefix string) (*Attempt, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE substr(id, 1, ?) = ? ORDER BY started_at DESC LIMIT 2`,
		len(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempt: %w", err)
	}
	defer rows.Close()

	var found []*Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		found = append(found, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
	}
}

// List returns the most recent attempts, newest first. A non-positive limit
// returns every attempt.
func (s *Store) List(ctx context.Context, limit int) ([]*Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

// Stats counts attempts per phase.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phase, COUNT(1) FROM attempts GROUP BY phase`)
	if err != nil {
		return nil, fmt.Errorf("attempt stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var phase string
		var count int
		if err := rows.Scan(&phase, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[phase] = count
	}
	return stats, rows.Err()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

package history

import (
	"database/sql"
	"errors"
	"time"
)

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (*Attempt, error) {
	var (
		attempt      Attempt
		jobID        sql.NullString
		lastStatus   sql.NullString
		videoURL     sql.NullString
		audioURL     sql.NullString
		text         sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		updatedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&attempt.ID,
		&attempt.FileName,
		&attempt.FilePath,
		&attempt.MediaType,
		&attempt.SizeBytes,
		&attempt.Source,
		&attempt.Language,
		&jobID,
		&attempt.Phase,
		&lastStatus,
		&videoURL,
		&audioURL,
		&text,
		&errorKind,
		&errorMessage,
		&startedRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	attempt.JobID = jobID.String
	attempt.LastStatus = lastStatus.String
	attempt.VideoURL = videoURL.String
	attempt.AudioURL = audioURL.String
	attempt.Text = text.String
	attempt.ErrorKind = errorKind.String
	attempt.ErrorMessage = errorMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		attempt.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		attempt.UpdatedAt = updated
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			attempt.FinishedAt = &finished
		}
	}
	return &attempt, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

// timeLayout has fixed-width fractions so stored values sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

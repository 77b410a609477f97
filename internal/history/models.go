package history

import "time"

// Attempt is the persisted record of one workflow attempt.
type Attempt struct {
	ID           string
	FileName     string
	FilePath     string
	MediaType    string
	SizeBytes    int64
	Source       string
	Language     string
	JobID        string
	Phase        string
	LastStatus   string
	VideoURL     string
	AudioURL     string
	Text         string
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

// Finished reports whether the attempt reached a terminal phase.
func (a Attempt) Finished() bool {
	return a.FinishedAt != nil
}

// Duration is the time from start to finish, or to the last update while the
// attempt is still running.
func (a Attempt) Duration() time.Duration {
	end := a.UpdatedAt
	if a.FinishedAt != nil {
		end = *a.FinishedAt
	}
	if end.Before(a.StartedAt) {
		return 0
	}
	return end.Sub(a.StartedAt)
}

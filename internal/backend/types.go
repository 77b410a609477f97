package backend

import (
	"fmt"
	"strings"
	"time"

	"vid2manga/internal/language"
	"vid2manga/internal/services"
)

// Status is the job status tag reported by the backend.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether polling should stop at this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func parseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, true
	case StatusProcessing:
		return StatusProcessing, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusFailed:
		return StatusFailed, true
	default:
		return "", false
	}
}

// JobParameters are the options sent alongside the uploaded file.
type JobParameters struct {
	Language string
}

// DefaultParameters returns parameters for an English-language job.
func DefaultParameters() JobParameters {
	return JobParameters{Language: language.Default}
}

// Normalize resolves the language to a canonical supported code. An empty
// language falls back to the default.
func (p JobParameters) Normalize() (JobParameters, error) {
	if strings.TrimSpace(p.Language) == "" {
		return DefaultParameters(), nil
	}
	code, err := language.Normalize(p.Language)
	if err != nil {
		return JobParameters{}, services.Wrap(services.ErrUnsupportedLanguage, "backend", "job parameters",
			fmt.Sprintf("language %q", p.Language), err)
	}
	return JobParameters{Language: code}, nil
}

// JobHandle identifies a job created by Submit.
type JobHandle struct {
	ID          string
	SubmittedAt time.Time
}

// IsZero reports whether the handle is unset.
func (h JobHandle) IsZero() bool {
	return h.ID == ""
}

// Result holds the artifacts of a completed job. URLs are absolute.
type Result struct {
	VideoURL string `json:"video_url"`
	AudioURL string `json:"audio_url"`
	Text     string `json:"text"`
}

// Snapshot is one observation of a job's status. Result is set only when the
// status is completed and Error only when it is failed.
type Snapshot struct {
	JobID      string
	Status     Status
	Result     *Result
	Error      string
	ReceivedAt time.Time
}

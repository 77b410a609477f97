package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSubmissionFailed    = errors.New("submission failed")
	ErrBackendReported     = errors.New("backend reported failure")
	ErrPollingFailed       = errors.New("polling failed")
	ErrConfiguration       = errors.New("configuration error")
	ErrCancelled           = errors.New("attempt cancelled")
)

// User-facing messages for each failure kind.
const (
	MessageInvalidFileType     = "Please upload a valid video file."
	MessageUnsupportedLanguage = "Please choose a supported spoken language."
	MessageSubmissionFailed    = "Failed to upload and process video. Please try again."
	MessagePollingFailed       = "Error checking task status."
	MessageCancelled           = "Conversion cancelled."
	messageBackendPrefix       = "Processing failed: "
	unknownBackendError        = "unknown error"
)

// BackendError carries the message a backend attached to a failed job.
type BackendError struct {
	JobID   string
	Message string
}

func (e *BackendError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = unknownBackendError
	}
	return fmt.Sprintf("job %s reported failure: %s", e.JobID, msg)
}

// Unwrap tags backend failures with ErrBackendReported.
func (e *BackendError) Unwrap() error {
	return ErrBackendReported
}

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPollingFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserMessage maps an error to the single message shown to the user.
// Backend-reported failures surface the backend's own text verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var backendErr *BackendError
	switch {
	case errors.Is(err, ErrCancelled):
		return MessageCancelled
	case errors.As(err, &backendErr):
		if strings.TrimSpace(backendErr.Message) == "" {
			return messageBackendPrefix + unknownBackendError
		}
		return messageBackendPrefix + backendErr.Message
	case errors.Is(err, ErrInvalidFileType):
		return MessageInvalidFileType
	case errors.Is(err, ErrUnsupportedLanguage):
		return MessageUnsupportedLanguage
	case errors.Is(err, ErrSubmissionFailed):
		return MessageSubmissionFailed
	case errors.Is(err, ErrBackendReported):
		return messageBackendPrefix + unknownBackendError
	default:
		return MessagePollingFailed
	}
}

// Kind returns a short label for the failure class, used in logs and history.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrInvalidFileType):
		return "invalid_file_type"
	case errors.Is(err, ErrUnsupportedLanguage):
		return "unsupported_language"
	case errors.Is(err, ErrSubmissionFailed):
		return "submission_failed"
	case errors.Is(err, ErrBackendReported):
		return "backend_reported_failure"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "polling_failed"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

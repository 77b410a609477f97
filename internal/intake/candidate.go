package intake

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Source identifies how a file entered the workflow.
type Source string

const (
	SourcePicker Source = "picker"
	SourceDrop   Source = "drop"
)

// ParseSource maps a flag value to a Source, defaulting to the picker.
func ParseSource(value string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case "", SourcePicker:
		return SourcePicker, nil
	case SourceDrop:
		return SourceDrop, nil
	default:
		return "", fmt.Errorf("unknown intake source %q", value)
	}
}

// Candidate is a file accepted for upload. It is a value type: replacing the
// selection means building a new Candidate, never editing one.
type Candidate struct {
	Path      string
	Name      string
	MediaType string
	Size      int64
	Source    Source
}

// IsZero reports whether the candidate is unset.
func (c Candidate) IsZero() bool {
	return c.Path == ""
}

// Open returns a reader over the candidate's bytes. Callers close it.
func (c Candidate) Open() (io.ReadCloser, error) {
	if c.IsZero() {
		return nil, fmt.Errorf("open candidate: no file selected")
	}
	file, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open candidate %s: %w", c.Name, err)
	}
	return file, nil
}

// SizeMB renders the size in megabytes with two decimals.
func (c Candidate) SizeMB() string {
	return fmt.Sprintf("%.2f MB", float64(c.Size)/(1024*1024))
}

package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"vid2manga/internal/history"
	"vid2manga/internal/workflow"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type attemptJSON struct {
	ID             string     `json:"id"`
	File           string     `json:"file"`
	Path           string     `json:"path,omitempty"`
	MediaType      string     `json:"media_type,omitempty"`
	SizeBytes      int64      `json:"size_bytes"`
	Source         string     `json:"source,omitempty"`
	Language       string     `json:"language"`
	JobID          string     `json:"job_id,omitempty"`
	Phase          string     `json:"phase"`
	LastStatus     string     `json:"last_status,omitempty"`
	VideoURL       string     `json:"video_url,omitempty"`
	AudioURL       string     `json:"audio_url,omitempty"`
	Text           string     `json:"text,omitempty"`
	ErrorKind      string     `json:"error_kind,omitempty"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
	Downloads      []string   `json:"downloads,omitempty"`
}

func attemptView(a *history.Attempt) attemptJSON {
	return attemptJSON{
		ID:             a.ID,
		File:           a.FileName,
		Path:           a.FilePath,
		MediaType:      a.MediaType,
		SizeBytes:      a.SizeBytes,
		Source:         a.Source,
		Language:       a.Language,
		JobID:          a.JobID,
		Phase:          a.Phase,
		LastStatus:     a.LastStatus,
		VideoURL:       a.VideoURL,
		AudioURL:       a.AudioURL,
		Text:           a.Text,
		ErrorKind:      a.ErrorKind,
		Error:          a.ErrorMessage,
		StartedAt:      a.StartedAt,
		FinishedAt:     a.FinishedAt,
		ElapsedSeconds: a.Duration().Seconds(),
	}
}

// stateView renders a finished orchestrator state with the same shape as
// history entries.
func stateView(state workflow.State, downloads []string) attemptJSON {
	attempt := history.FromState(state, state.FinishedAt)
	view := attemptView(&attempt)
	view.Downloads = downloads
	return view
}

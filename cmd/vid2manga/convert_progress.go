package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"vid2manga/internal/backend"
	"vid2manga/internal/language"
	"vid2manga/internal/textutil"
	"vid2manga/internal/workflow"
)

// progressRenderer prints workflow events as status lines.
type progressRenderer struct {
	mu         sync.Mutex
	out        io.Writer
	colorize   bool
	interval   time.Duration
	lastStatus backend.Status
}

func newProgressRenderer(out io.Writer, colorize bool, interval time.Duration) *progressRenderer {
	return &progressRenderer{out: out, colorize: colorize, interval: interval}
}

func (r *progressRenderer) OnEvent(event workflow.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := event.State
	switch event.Kind {
	case workflow.EventPhase:
		switch state.Phase {
		case workflow.PhaseFileSelected:
			r.line("File", statusInfo, fmt.Sprintf("%s (%s, %s, via %s)",
				state.Candidate.Name, state.Candidate.MediaType, state.Candidate.SizeMB(), state.Candidate.Source))
		case workflow.PhasePolling:
			r.line("Job", statusInfo, fmt.Sprintf("%s created, checking every %s", state.Handle.ID, r.interval))
		}
	case workflow.EventAttemptStarted:
		r.lastStatus = ""
		r.line("Upload", statusInfo, fmt.Sprintf("uploading %s (%s)",
			state.Candidate.Name, language.DisplayName(state.Parameters.Language)))
	case workflow.EventJobStatus:
		if state.LastSnapshot == nil || state.LastSnapshot.Status == r.lastStatus {
			return
		}
		r.lastStatus = state.LastSnapshot.Status
		r.line("Status", statusInfo, titleWord(string(r.lastStatus)))
	case workflow.EventAttemptSucceeded:
		elapsed := state.FinishedAt.Sub(state.StartedAt).Round(time.Second)
		r.line("Result", statusOK, fmt.Sprintf("conversion complete in %s", elapsed))
		if state.Result != nil {
			r.detail("Video", valueOrNone(state.Result.VideoURL))
			r.detail("Audio", valueOrNone(state.Result.AudioURL))
			r.detail("Text", valueOrNone(textutil.Excerpt(state.Result.Text, 72)))
		}
	case workflow.EventAttemptFailed:
		r.line("Result", statusError, state.ErrorMessage)
	}
}

func (r *progressRenderer) line(label string, kind statusKind, message string) {
	fmt.Fprintln(r.out, renderStatusLine(label, kind, message, r.colorize))
}

func (r *progressRenderer) detail(label, value string) {
	fmt.Fprintln(r.out, renderDetailLine(label, value))
}

func valueOrNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}

var _ workflow.Observer = (*progressRenderer)(nil)

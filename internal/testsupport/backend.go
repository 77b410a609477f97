package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// FakeBackend is an in-process conversion service. Status queries replay
// Statuses in order and repeat the last entry.
type FakeBackend struct {
	Server *httptest.Server

	mu        sync.Mutex
	taskID    string
	statuses  []string
	result    map[string]string
	failure   string
	submitErr int
	uploads   []Upload

	statusQueries atomic.Int32
}

// Upload captures one received create-job request.
type Upload struct {
	FileName    string
	ContentType string
	Language    string
	Size        int64
}

// FakeBackendOption customizes a FakeBackend.
type FakeBackendOption func(*FakeBackend)

// WithStatuses sets the status sequence reported for the job.
func WithStatuses(statuses ...string) FakeBackendOption {
	return func(f *FakeBackend) { f.statuses = statuses }
}

// WithFailure makes a failed status carry message.
func WithFailure(message string) FakeBackendOption {
	return func(f *FakeBackend) { f.failure = message }
}

// WithSubmitStatus makes POST /convert answer with an HTTP error code.
func WithSubmitStatus(code int) FakeBackendOption {
	return func(f *FakeBackend) { f.submitErr = code }
}

// NewFakeBackend starts a backend that accepts uploads as task "abc123" and
// serves artifacts under /out/.
func NewFakeBackend(t testing.TB, opts ...FakeBackendOption) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		taskID:   "abc123",
		statuses: []string{"pending", "processing", "completed"},
		result: map[string]string{
			"video_url": "/out/clip-manga.mp4",
			"audio_url": "/out/clip-audio.mp3",
			"text":      "hello from the backend",
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "conversion service"})
	})
	mux.HandleFunc("POST /convert", f.handleConvert)
	mux.HandleFunc("GET /status/{id}", f.handleStatus)
	mux.HandleFunc("GET /out/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "artifact:"+r.PathValue("name"))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base address of the fake service.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// StatusQueries returns how many status requests were served.
func (f *FakeBackend) StatusQueries() int {
	return int(f.statusQueries.Load())
}

// Uploads returns the create-job requests received so far.
func (f *FakeBackend) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Upload(nil), f.uploads...)
}

func (f *FakeBackend) handleConvert(w http.ResponseWriter, r *http.Request) {
	if f.submitErr != 0 {
		writeJSON(w, f.submitErr, map[string]string{"detail": "rejected"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing file"})
		return
	}
	defer file.Close()
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "video/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "File must be a video"})
		return
	}
	size, _ := io.Copy(io.Discard, file)

	f.mu.Lock()
	f.uploads = append(f.uploads, Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Language:    r.FormValue("language"),
		Size:        size,
	})
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"task_id": f.taskID})
}

func (f *FakeBackend) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != f.taskID {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Task not found"})
		return
	}
	n := int(f.statusQueries.Add(1))
	status := f.statuses[min(n, len(f.statuses))-1]
	body := map[string]any{"id": f.taskID, "status": status, "result": nil, "error": nil}
	switch status {
	case "completed":
		body["result"] = f.result
	case "failed":
		body["error"] = f.failure
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"vid2manga/internal/logging"
	"vid2manga/internal/services"
)

type statusResponse struct {
	Status string  `json:"status"`
	Result *Result `json:"result"`
	Error  *string `json:"error"`
}

// Status fetches the current status of a job. Completed results carry
// absolute URLs. Transport failures, non-2xx responses, unknown status tags
// and malformed payloads are all reported as services.ErrPollingFailed.
func (c *Client) Status(ctx context.Context, handle JobHandle) (Snapshot, error) {
	if handle.IsZero() {
		return Snapshot{}, pollError("status", "job handle is empty", nil)
	}
	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/status/"+url.PathEscape(handle.ID)), nil)
	if err != nil {
		return Snapshot{}, pollError("status", "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, pollError("status", "send request", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Snapshot{}, pollError("status",
			fmt.Sprintf("backend returned %d for job %s: %s", resp.StatusCode, handle.ID, readSnippet(resp.Body)), nil)
	}

	var decoded statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return Snapshot{}, pollError("status", "decode response", err)
	}
	snapshot, err := c.snapshotFrom(handle, decoded)
	if err != nil {
		return Snapshot{}, err
	}

	logging.WithContext(ctx, c.logger).Debug("job status",
		logging.JobID(handle.ID),
		logging.String("status", string(snapshot.Status)),
	)
	return snapshot, nil
}

func (c *Client) snapshotFrom(handle JobHandle, decoded statusResponse) (Snapshot, error) {
	status, ok := parseStatus(decoded.Status)
	if !ok {
		return Snapshot{}, pollError("status", fmt.Sprintf("unknown status %q", decoded.Status), nil)
	}
	snapshot := Snapshot{JobID: handle.ID, Status: status, ReceivedAt: c.now()}
	switch status {
	case StatusCompleted:
		if decoded.Result == nil {
			return Snapshot{}, pollError("status", "completed job has no result", nil)
		}
		result, err := c.resolveResult(*decoded.Result)
		if err != nil {
			return Snapshot{}, err
		}
		snapshot.Result = &result
	case StatusFailed:
		if decoded.Error != nil {
			snapshot.Error = *decoded.Error
		}
	}
	return snapshot, nil
}

func (c *Client) resolveResult(raw Result) (Result, error) {
	video, err := c.ResolveURL(raw.VideoURL)
	if err != nil {
		return Result{}, err
	}
	audio, err := c.ResolveURL(raw.AudioURL)
	if err != nil {
		return Result{}, err
	}
	return Result{VideoURL: video, AudioURL: audio, Text: raw.Text}, nil
}

func pollError(operation, message string, err error) error {
	return services.Wrap(services.ErrPollingFailed, "backend", operation, message, err)
}

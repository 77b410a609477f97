package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"vid2manga/internal/intake"
	"vid2manga/internal/logging"
	"vid2manga/internal/services"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type submitResponse struct {
	TaskID string `json:"task_id"`
}

// Submit uploads the candidate and creates a conversion job. It is fire-once:
// failures are reported, never retried.
func (c *Client) Submit(ctx context.Context, candidate intake.Candidate, params JobParameters) (JobHandle, error) {
	params, err := params.Normalize()
	if err != nil {
		return JobHandle{}, err
	}
	if err := intake.Validate(candidate); err != nil {
		return JobHandle{}, err
	}

	ctx, cancel := withTimeout(ctx, c.uploadTimeout)
	defer cancel()

	body, err := candidate.Open()
	if err != nil {
		return JobHandle{}, submitError("open upload", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	written := make(chan struct{})
	go func() {
		defer close(written)
		defer body.Close()
		pw.CloseWithError(writeForm(writer, candidate, params, body))
	}()
	defer func() {
		_ = pr.Close()
		<-written
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/convert"), pr)
	if err != nil {
		return JobHandle{}, submitError("build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("uploading video",
		logging.String("file", candidate.Name),
		logging.String("media_type", candidate.MediaType),
		logging.Int64("size_bytes", candidate.Size),
		logging.String("language", params.Language),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return JobHandle{}, submitError("send request", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return JobHandle{}, submitError(fmt.Sprintf("backend returned %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}

	var decoded submitResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return JobHandle{}, submitError("decode response", err)
	}
	id := strings.TrimSpace(decoded.TaskID)
	if id == "" {
		return JobHandle{}, submitError("response has no task_id", nil)
	}

	handle := JobHandle{ID: id, SubmittedAt: c.now()}
	logger.Info("job created", logging.JobID(id), logging.String("file", candidate.Name))
	return handle, nil
}

func writeForm(writer *multipart.Writer, candidate intake.Candidate, params JobParameters, content io.Reader) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(candidate.Name)))
	header.Set("Content-Type", candidate.MediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := writer.WriteField("language", params.Language); err != nil {
		return err
	}
	return writer.Close()
}

func submitError(message string, err error) error {
	return services.Wrap(services.ErrSubmissionFailed, "backend", "submit", message, err)
}

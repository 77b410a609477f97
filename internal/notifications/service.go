package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vid2manga/internal/backend"
	"vid2manga/internal/config"
)

const userAgent = "vid2manga/0.1.0"

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyAttemptSucceeded(ctx context.Context, fileName string, result backend.Result, elapsed time.Duration) error
	NotifyAttemptFailed(ctx context.Context, fileName, message string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers notifications.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyAttemptSucceeded(ctx context.Context, fileName string, result backend.Result, elapsed time.Duration) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "✅ Converted: %s", displayName(fileName))
	if elapsed = elapsed.Round(time.Second); elapsed > 0 {
		fmt.Fprintf(&builder, " in %s", elapsed)
	}
	if result.VideoURL != "" {
		fmt.Fprintf(&builder, "\nVideo: %s", result.VideoURL)
	}
	if result.AudioURL != "" {
		fmt.Fprintf(&builder, "\nAudio: %s", result.AudioURL)
	}
	data := payload{
		title:   "vid2manga - Conversion Complete",
		message: builder.String(),
		tags:    []string{"vid2manga", "convert", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAttemptFailed(ctx context.Context, fileName, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}
	data := payload{
		title:    "vid2manga - Conversion Failed",
		message:  fmt.Sprintf("❌ %s: %s", displayName(fileName), message),
		tags:     []string{"vid2manga", "convert", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "vid2manga - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"vid2manga", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayName(fileName string) string {
	if fileName = strings.TrimSpace(fileName); fileName != "" {
		return fileName
	}
	return "video"
}

type noopService struct{}

func (noopService) NotifyAttemptSucceeded(context.Context, string, backend.Result, time.Duration) error {
	return nil
}
func (noopService) NotifyAttemptFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error { return nil }

package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vid2manga/internal/config"
	"vid2manga/internal/logging"
)

const (
	userAgent        = "vid2manga/0.1.0"
	maxResponseBytes = 1 << 20
)

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	HTTPClient     HTTPDoer
	Logger         *slog.Logger
	Now            func() time.Time
}

// Client wraps the conversion service endpoints.
type Client struct {
	base           *url.URL
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	http           HTTPDoer
	logger         *slog.Logger
	now            func() time.Time
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	base, err := url.Parse(raw)
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("backend base url must be an absolute http(s) URL, got %q", opts.BaseURL)
	}
	client := &Client{
		base:           base,
		requestTimeout: opts.RequestTimeout,
		uploadTimeout:  opts.UploadTimeout,
		http:           opts.HTTPClient,
		logger:         logging.NewComponentLogger(opts.Logger, "backend"),
		now:            opts.Now,
	}
	if client.http == nil {
		// Timeouts are applied per request through the context so long
		// uploads are not cut short by a client-wide limit.
		client.http = &http.Client{}
	}
	if client.now == nil {
		client.now = time.Now
	}
	return client, nil
}

// NewFromConfig builds a Client from application configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("backend: config is required")
	}
	return New(Options{
		BaseURL:        cfg.Backend.BaseURL,
		RequestTimeout: cfg.RequestTimeout(),
		UploadTimeout:  cfg.UploadTimeout(),
		Logger:         logger,
	})
}

// BaseURL returns the configured service address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Ping issues GET / and treats any HTTP response as reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/"), nil)
	if err != nil {
		return fmt.Errorf("build health check request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable at %s: %w", c.BaseURL(), err)
	}
	drain(resp.Body)
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.base.String(), "/") + "/" + strings.TrimLeft(path, "/")
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBytes))
	_ = body.Close()
}

func readSnippet(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 512))
	return strings.TrimSpace(string(data))
}

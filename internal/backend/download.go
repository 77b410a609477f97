package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"vid2manga/internal/logging"
	"vid2manga/internal/textutil"
)

// Download fetches an artifact into dir and returns the written path. The
// file name comes from the last URL path segment, falling back to fallback.
func (c *Client) Download(ctx context.Context, rawURL, dir, fallback string) (string, error) {
	resolved, err := c.ResolveURL(rawURL)
	if err != nil {
		return "", err
	}
	if resolved == "" {
		return "", errors.New("download: artifact url is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("download: create %s: %w", dir, err)
	}

	ctx, cancel := withTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return "", fmt.Errorf("download: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", resolved, err)
	}
	defer drain(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download %s: server returned %d", resolved, resp.StatusCode)
	}

	target := filepath.Join(dir, artifactName(resolved, fallback))
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("download: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("download %s: %w", resolved, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("download: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("download: move into place: %w", err)
	}

	c.logger.Info("artifact downloaded", logging.String("url", resolved), logging.String("path", target))
	return target, nil
}

func artifactName(rawURL, fallback string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		if name := textutil.SanitizeFileName(path.Base(parsed.Path)); name != "" && name != "-" {
			return name
		}
	}
	if name := textutil.SanitizeFileName(filepath.Base(fallback)); name != "" && name != "-" {
		return name
	}
	return "artifact"
}

package backend

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveURL turns a result URL into an absolute one. http and https URLs
// pass through; a protocol-relative URL takes the base scheme; anything else
// without a scheme is appended to the base address, keeping the base path. Other schemes are rejected as a decoding failure.
// An empty input resolves to an empty string.
func (c *Client) ResolveURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", pollError("resolve url", fmt.Sprintf("malformed url %q", raw), err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if parsed.Host == "" {
			return "", pollError("resolve url", fmt.Sprintf("url %q has no host", raw), nil)
		}
		return parsed.String(), nil
	case "":
		if parsed.Host != "" {
			return c.base.ResolveReference(parsed).String(), nil
		}
	default:
		return "", pollError("resolve url", fmt.Sprintf("unsupported scheme in %q", raw), nil)
	}

	joined := strings.TrimRight(c.base.String(), "/") + "/" + strings.TrimLeft(trimmed, "/")
	resolved, err := url.Parse(joined)
	if err != nil {
		return "", pollError("resolve url", fmt.Sprintf("malformed url %q", raw), err)
	}
	return resolved.String(), nil
}

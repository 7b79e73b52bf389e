package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/droidpad/internal/domain/types"
	"github.com/okian/droidpad/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
	base   string
}

// newHTTPClient creates a new HTTP client against the bridge's API base.
func newHTTPClient(base string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		base:   strings.TrimSuffix(base, "/"),
	}
}

// getJSON fetches path and decodes the JSON body into v.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) health(ctx context.Context) error {
	var body map[string]string
	if err := c.getJSON(ctx, "/healthz", &body); err != nil {
		return err
	}
	if body["status"] != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, body["status"])
	}
	return nil
}

func (c *HTTPClient) stats(ctx context.Context) (map[string]any, error) {
	var st map[string]any
	err := c.getJSON(ctx, "/stats", &st)
	return st, err
}

func (c *HTTPClient) sessions(ctx context.Context) ([]types.SessionInfo, error) {
	var infos []types.SessionInfo
	err := c.getJSON(ctx, "/sessions", &infos)
	return infos, err
}

// apiBase turns a ws:// or wss:// endpoint into the matching http base.
func apiBase(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}

// activeSessions reads sessions_active from /stats. JSON numbers decode
// as float64.
func activeSessions(st map[string]any) int {
	v, _ := st["sessions_active"].(float64)
	return int(v)
}

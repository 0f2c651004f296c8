package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// client wraps http.Client with the service base URL.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *client) do(ctx context.Context, method, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp.StatusCode, body, nil
}

func (c *client) health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned status %d", status)
	}
	return nil
}

func (c *client) activities(ctx context.Context) (map[string]activity, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/activities")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list activities returned status %d", status)
	}
	var out map[string]activity
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return out, nil
}

// roster posts a signup or unregister and returns the status code.
func (c *client) roster(ctx context.Context, op operation) (int, error) {
	path := "/activities/" + url.PathEscape(op.Activity) + "/" + string(op.Kind) +
		"?email=" + url.QueryEscape(op.Email)
	status, _, err := c.do(ctx, http.MethodPost, path)
	return status, err
}

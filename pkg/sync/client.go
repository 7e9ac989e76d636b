package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dojolog/dojolog/internal/config"
)

// Client talks to the remote journal endpoint.
type Client interface {
	Pull(ctx context.Context, since string) ([]Item, error)
	Push(ctx context.Context, items []Item) (int, error)
}

type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(cfg config.Sync) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Pull fetches remote items changed since the given watermark.
func (c *HTTPClient) Pull(ctx context.Context, since string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/sync.php", nil)
	if err != nil {
		return nil, fmt.Errorf("could not build pull request: %w", err)
	}
	q := req.URL.Query()
	q.Set("since", since)
	req.URL.RawQuery = q.Encode()
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, "pull"); err != nil {
		return nil, err
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("pull failed (bad JSON): %w", err)
	}
	return items, nil
}

// Push uploads local changes and returns how many the remote upserted.
func (c *HTTPClient) Push(ctx context.Context, items []Item) (int, error) {
	body, err := json.Marshal(map[string][]Item{"items": items})
	if err != nil {
		return 0, fmt.Errorf("could not encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sync.php", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("could not build push request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("push failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, "push"); err != nil {
		return 0, err
	}

	var data struct {
		Upserted int `json:"upserted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("push failed (bad JSON): %w", err)
	}
	return data.Upserted, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("X-Sync-Token", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "DojologSync/1.0")
}

// checkResponse guards against proxies and broken endpoints answering with
// HTML: anything non-2xx or non-JSON is a failure.
func checkResponse(resp *http.Response, op string) error {
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("%s failed (non-JSON response): %s", op, string(snippet))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s failed with status %d", op, resp.StatusCode)
	}
	return nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the daemon control API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient constructs a control API client for the given bind address.
func NewClient(bind, token string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status retrieves daemon runtime information.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// QueueList returns the current queue snapshot.
func (c *Client) QueueList(ctx context.Context) ([]ItemView, error) {
	var resp QueueListResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// QueueItem returns a single item by id.
func (c *Client) QueueItem(ctx context.Context, id string) (*ItemView, error) {
	var resp QueueItemResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// Add enqueues a file by path.
func (c *Client) Add(ctx context.Context, req AddRequest) (*ItemView, error) {
	var resp QueueItemResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// Remove drops an item from the queue.
func (c *Client) Remove(ctx context.Context, id string) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.do(ctx, http.MethodDelete, "/api/queue/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Retry requeues an errored item with a fresh retry budget.
func (c *Client) Retry(ctx context.Context, id string) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(id)+"/retry", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pause gates new dispatches.
func (c *Client) Pause(ctx context.Context) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/pause", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resume lifts a pause.
func (c *Client) Resume(ctx context.Context) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/resume", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear empties the queue.
func (c *Client) Clear(ctx context.Context) (*ClearResponse, error) {
	var resp ClearResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/clear", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList returns journal entries, newest first. A non-positive
// limit returns everything.
func (c *Client) HistoryList(ctx context.Context, limit int) ([]HistoryEntryView, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp HistoryListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s: %s", method, path, decodeError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}

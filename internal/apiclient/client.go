// Package apiclient is the HTTP client the CLI uses to talk to a running
// daemon. Methods mirror the API routes one to one and surface non-2xx
// responses as *APIError so callers can branch on the status code.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rumormill/internal/api"
	"rumormill/internal/journal"
	"rumormill/internal/rumor"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon responded %d: %s", e.StatusCode, e.Message)
}

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL (see BaseURL).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURL normalizes a configured bind address into a dialable URL.
// Wildcard hosts become the loopback address.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		bind = ":8080"
	}
	if strings.HasPrefix(bind, "http://") || strings.HasPrefix(bind, "https://") {
		return strings.TrimRight(bind, "/")
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// ListRumors returns the rumors matching the optional person filter.
func (c *Client) ListRumors(ctx context.Context, filter string) ([]rumor.Rumor, error) {
	path := "/api/rumors"
	if filter = strings.TrimSpace(filter); filter != "" {
		path += "?name=" + url.QueryEscape(filter)
	}
	var list []rumor.Rumor
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateRumor adds a rumor. All content fields are required server-side.
func (c *Client) CreateRumor(ctx context.Context, patch rumor.Patch) (rumor.Rumor, error) {
	var created rumor.Rumor
	err := c.do(ctx, http.MethodPost, "/api/rumors", patch, &created)
	return created, err
}

// UpdateRumor merges the non-nil patch fields into the rumor with id.
func (c *Client) UpdateRumor(ctx context.Context, id int64, patch rumor.Patch) (rumor.Rumor, error) {
	var updated rumor.Rumor
	err := c.do(ctx, http.MethodPut, "/api/rumors/"+strconv.FormatInt(id, 10), patch, &updated)
	return updated, err
}

// DeleteRumor removes the rumor with id.
func (c *Client) DeleteRumor(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/rumors/"+strconv.FormatInt(id, 10), nil, nil)
}

// ResetCount zeroes the printed counter of one rumor.
func (c *Client) ResetCount(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, "/api/rumors/"+strconv.FormatInt(id, 10)+"/reset", nil, nil)
}

// ResetAllCounts zeroes every printed counter.
func (c *Client) ResetAllCounts(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/rumors/resetAll", nil, nil)
}

// Status fetches the daemon's aggregated runtime snapshot.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// Journal returns recent dispatch journal entries, newest first.
func (c *Client) Journal(ctx context.Context, limit int) ([]journal.Entry, error) {
	path := "/api/journal"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp api.JournalResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// ClearJournal deletes every journal entry.
func (c *Client) ClearJournal(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/journal", nil, nil)
}

// TriggerPrint enqueues a manual print pulse.
func (c *Client) TriggerPrint(ctx context.Context) (api.TriggerResponse, error) {
	var resp api.TriggerResponse
	err := c.do(ctx, http.MethodPost, "/api/print", nil, &resp)
	return resp, err
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

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(res)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(res *http.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode, Message: res.Status}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 2048)).Decode(&payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}

// Package transport holds the small HTTP/JSON helpers shared by the
// replication fan-out and the election coordinator: both issue short-lived,
// timeout-bounded requests to other cache nodes and need nothing more than
// "do this verb, encode this body, decode that response."
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps an *http.Client with a fixed per-call timeout, sized for the
// kind of caller that issues replication sends or health probes rather than
// long-lived connections.
type Client struct {
	http *http.Client
}

// NewClient builds a Client whose requests are bounded by timeout end to
// end (connect, write, read).
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// PostJSON marshals body (if non-nil) as the request payload, issues a POST
// to url, and on a 2xx response decodes the response body into out (if
// non-nil).
func (c *Client) PostJSON(ctx context.Context, url string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, url, body, out)
}

// PutJSON is PostJSON with the PUT verb.
func (c *Client) PutJSON(ctx context.Context, url string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPut, url, body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("transport: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// DeleteJSON issues a DELETE to url and on a 2xx response decodes the
// response body into out (if non-nil).
func (c *Client) DeleteJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	return c.do(req, out)
}

// GetJSON issues a GET to url and on a 2xx response decodes the response
// body into out (if non-nil).
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	return c.do(req, out)
}

// Get issues a plain GET to url and reports whether the response status was
// 200, treating any transport error, timeout, or non-200 status as failure.
// This is the shape a health probe needs: it does not care about the body.
func (c *Client) Get(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transport: GET %s: status %d", url, resp.StatusCode)
	}
	return nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("transport: %s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

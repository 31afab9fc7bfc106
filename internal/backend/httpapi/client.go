// Package httpapi talks to the remote CRM REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/crm-console/internal/backend"
)

// ErrorResponse is the error body returned by the CRM API.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Client is a thin HTTP client for the CRM API. It handles Bearer token
// authentication, JSON decoding, and retry with exponential backoff on
// HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMaxRetries sets how many times a rate-limited request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. https://crm.example.com). Requests go to {baseURL}/api/{resource}.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ backend.Backend = (*Client)(nil)

// List fetches one page of a resource.
func (c *Client) List(
	ctx context.Context,
	resource string,
	q url.Values,
) (*backend.ListResult, error) {
	path := "/api/" + resource
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var res backend.ListResult
	if err := c.do(ctx, http.MethodGet, path, &res); err != nil {
		return nil, fmt.Errorf("listing %s: %w", resource, err)
	}
	return &res, nil
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, resource string, id int64) error {
	path := fmt.Sprintf("/api/%s/%d", resource, id)
	if err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("deleting %s %d: %w", resource, id, err)
	}
	return nil
}

// do builds the request, handles auth and rate limiting, and decodes the
// JSON response into result when it is non-nil.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	result interface{},
) error {
	target := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		requestID := uuid.NewString()
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		started := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		c.logger.Debug("api request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(started)),
		)

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)
			c.logger.Warn("rate limited",
				zap.String("path", path),
				zap.Duration("wait", waitDuration),
				zap.Int("attempt", attempt),
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &backend.AuthError{
				Message: fmt.Sprintf("token rejected by %s; run `crm login`", c.baseURL),
			}
		}

		if resp.StatusCode == http.StatusNotFound {
			return backend.ErrNotFound
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var apiErr ErrorResponse
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				return fmt.Errorf(
					"api error (%d) on %s %s: %s",
					resp.StatusCode, method, path, apiErr.Message,
				)
			}
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

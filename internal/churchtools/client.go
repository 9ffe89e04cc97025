// Package churchtools is a minimal ChurchTools REST API client covering
// what song synchronization needs: songs, song categories, tags and
// file attachments. Authentication uses a permanent login token.
package churchtools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"songqs/internal/logging"
)

// defaultThrottle spaces requests out far enough to stay below the
// ChurchTools rate limit.
const defaultThrottle = 100 * time.Millisecond

// retryAfterFallback is the wait before retrying a rate limited request
// when the server does not say how long to back off.
const retryAfterFallback = 15 * time.Second

// Client talks to one ChurchTools instance.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	throttle time.Duration

	mu   sync.Mutex
	last time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithThrottle sets the minimum spacing between requests.
func WithThrottle(d time.Duration) Option {
	return func(c *Client) { c.throttle = d }
}

// NewClient returns a client for the given instance domain, e.g.
// "https://church.example.org", authenticating with a login token.
func NewClient(domain, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  domain,
		token:    token,
		http:     &http.Client{Timeout: 60 * time.Second},
		throttle: defaultThrottle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from ChurchTools.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("churchtools: status %d: %s", e.Status, e.Message)
}

// response is the standard ChurchTools envelope.
type response struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Pagination struct {
			Total   int `json:"total"`
			Current int `json:"current"`
			LastPage int `json:"lastPage"`
		} `json:"pagination"`
	} `json:"meta"`
}

// wait blocks until the throttle allows the next request.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	pause := c.throttle - time.Since(c.last)
	c.last = time.Now().Add(max(pause, 0))
	c.mu.Unlock()

	if pause <= 0 {
		return nil
	}
	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// doJSON performs one API request with a JSON body and decodes the
// response envelope. A rate limited request is retried once after the
// advertised backoff.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Login "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			backoff := retryAfterFallback
			if s := resp.Header.Get("Retry-After"); s != "" {
				if secs, err := strconv.Atoi(s); err == nil {
					backoff = time.Duration(secs) * time.Second
				}
			}
			logging.L().Warn("rate limited, backing off",
				zap.String("path", path), zap.Duration("backoff", backoff))
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &APIError{Status: resp.StatusCode, Message: apiMessage(raw)}
		}

		if len(raw) == 0 {
			return &response{}, nil
		}
		var env response
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &env, nil
	}
}

func apiMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/liuran001/WatchParty-Go/party"
	"github.com/liuran001/WatchParty-Go/party/settings"
	"github.com/sony/gobreaker"
)

const maxBodyBytes = 1 << 20

// Options tunes timeouts and retries.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// HTTPClient replaces the underlying transport client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the watch-party backend resolved through a ServerAddress.
type Client struct {
	addr       party.ServerAddress
	httpClient *retryablehttp.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     party.Logger
}

// New creates a backend client with retry and circuit breaker.
func New(addr party.ServerAddress, opts Options, logger party.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 200 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 2 * time.Second
	}

	client := retryablehttp.NewClient()
	// Attempts are driven by withRetry so that the breaker sees one outcome per call.
	client.RetryMax = 0
	client.RetryWaitMin = opts.MinBackoff
	client.RetryWaitMax = opts.MaxBackoff
	client.Logger = nil
	// Hand non-2xx responses back so callers can report the status.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.HTTPClient != nil {
		client.HTTPClient = opts.HTTPClient
	}
	client.HTTPClient.Timeout = opts.Timeout

	settings := gobreaker.Settings{
		Name:        "watchparty-backend",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || permanent(err) || errors.Is(err, context.Canceled)
		},
	}

	return &Client{
		addr:       addr,
		httpClient: client,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		maxRetries: opts.MaxRetries,
		minBackoff: opts.MinBackoff,
		maxBackoff: opts.MaxBackoff,
		logger:     logger,
	}
}

// Server returns the address the next call will use.
func (c *Client) Server(ctx context.Context) string {
	return c.addr.Get(ctx)
}

// CheckHealth performs a single GET /health. It bypasses retries and the
// breaker so the status always reflects the current address.
func (c *Client) CheckHealth(ctx context.Context) error {
	endpoint, err := c.endpoint(ctx, "/health")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Method: http.MethodGet, Endpoint: endpoint, Status: resp.StatusCode, Err: ErrUnhealthy}
	}
	return nil
}

// Feedback is the payload relayed to POST /feedback.
type Feedback struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Contact   string    `json:"contact,omitempty"`
	Page      string    `json:"page,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SendFeedback posts a feedback entry to the backend.
func (c *Client) SendFeedback(ctx context.Context, fb Feedback) error {
	endpoint, err := c.endpoint(ctx, "/feedback")
	if err != nil {
		return err
	}
	body, err := json.Marshal(fb)
	if err != nil {
		return err
	}

	return c.execute(ctx, func() error {
		resp, err := c.do(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &RequestError{Method: http.MethodPost, Endpoint: endpoint, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}
		return nil
	})
}

func (c *Client) endpoint(ctx context.Context, path string) (string, error) {
	endpoint, err := settings.HTTPEndpoint(c.addr.Get(ctx), path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadServerURL, err)
	}
	return endpoint, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var payload any
	if body != nil {
		payload = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, &RequestError{Method: method, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, Endpoint: endpoint, Err: err}
	}
	return resp, nil
}

func (c *Client) execute(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.withRetry(ctx, fn)
	})
	return err
}

func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if permanent(err) || attempt == c.maxRetries {
			break
		}
		if c.logger != nil {
			c.logger.Debug("backend call failed, retrying", "attempt", attempt+1, "error", err)
		}

		wait := c.httpClient.Backoff(c.minBackoff, c.maxBackoff, attempt, nil)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	if lastErr == nil {
		lastErr = errors.New("backend: retry failed")
	}
	return lastErr
}

package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	// GeneratePath is the upstream generate endpoint.
	GeneratePath = "/api/generate"

	// HealthPath is probed to check upstream liveness.
	HealthPath = "/api/tags"

	// maxErrorBody bounds how much of an upstream error body is retained.
	maxErrorBody = 512
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Host and Port locate the inference server.
	Host string
	Port int

	// Timeout is the maximum duration for a generate request.
	Timeout time.Duration

	// HealthTimeout is the timeout applied to health probes.
	HealthTimeout time.Duration

	// MaxIdleConns and MaxIdleConnsPerHost size the connection pool.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

// Client is a thin HTTP client wrapper for the upstream inference server.
// It applies the configured timeout, translates transport failures into
// typed errors, and relays either whole bodies or raw streams.
type Client struct {
	baseURL       string
	timeout       time.Duration
	healthTimeout time.Duration
	client        *http.Client
	logger        *slog.Logger
}

// NewClient creates a client for the configured upstream.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = 5 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		baseURL:       fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		timeout:       cfg.Timeout,
		healthTimeout: cfg.HealthTimeout,
		// The client timeout covers the whole exchange including body
		// transfer; per-request contexts below layer cancellation on top.
		client: &http.Client{Transport: transport},
		logger: logger.With("component", "upstream"),
	}
}

// BaseURL returns the upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate forwards a generate request and returns the whole response body.
func (c *Client) Generate(ctx context.Context, body []byte) ([]byte, error) {
	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.translate(err)
	}
	return data, nil
}

// GenerateStream forwards a generate request and returns the raw response
// body stream. The caller owns the returned ReadCloser and must close it;
// cancelling ctx aborts the transfer.
func (c *Client) GenerateStream(ctx context.Context, body []byte) (io.ReadCloser, error) {
	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Health probes the upstream liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	url := c.baseURL + HealthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.translate(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

// post issues the generate request and maps failures to typed errors.
// A 2xx response is returned with its body unread.
func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	url := c.baseURL + GeneratePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("forwarding generate request", "url", url, "bytes", len(body))

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, c.translate(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(errorBody),
		}
	}

	// Tie the timeout to the body's lifetime so slow transfers are still
	// bounded; closing the body releases the timer.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// translate maps transport errors to the package's typed errors.
func (c *Client) translate(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TimeoutError{URL: c.baseURL, Timeout: c.timeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: c.baseURL, Timeout: c.timeout}
	}
	return &ConnectionError{URL: c.baseURL, Cause: err}
}

// cancelReadCloser releases a context cancel func when the body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

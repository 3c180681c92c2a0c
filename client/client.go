// Package client ships log batches and metrics snapshots to the skylog API
// with bounded retries and a fixed per-request timeout.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"skylog/models"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
)

// Config holds the delivery client's static settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration // per-request ceiling, default 10s
	MaxAttempts int           // total attempts including the first, default 3
	// InitialBackoff seeds the exponential backoff between attempts.
	// Zero uses the backoff library's default (500ms).
	InitialBackoff time.Duration
}

// StatusError is a non-2xx response. Only 5xx are retried; 4xx is a
// permanent rejection of the batch.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// Temporary reports whether a retry could succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500
}

// Client is the process-wide delivery client, constructed once at startup
// and passed to the buffer and monitor. It holds a single http.Client whose
// Timeout bounds every attempt.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// SendBatch posts a batch of log events to the ingest endpoint. Network
// errors and 5xx responses are retried with exponential backoff up to the
// configured attempt count; 4xx surfaces immediately as a *StatusError.
func (c *Client) SendBatch(ctx context.Context, events []models.LogEvent) error {
	_, err := c.postJSON(ctx, "/logs/batch", events)
	return err
}

// SendBatchAck is SendBatch returning the server's acknowledgement.
func (c *Client) SendBatchAck(ctx context.Context, events []models.LogEvent) (*models.BatchAck, error) {
	body, err := c.postJSON(ctx, "/logs/batch", events)
	if err != nil {
		return nil, err
	}
	var ack models.BatchAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("failed to decode ack: %w", err)
	}
	return &ack, nil
}

// SendMetrics posts one metrics snapshot, with the same retry policy as log
// batches.
func (c *Client) SendMetrics(ctx context.Context, snap models.MetricsSnapshot) error {
	_, err := c.postJSON(ctx, "/logs/metrics", snap)
	return err
}

// postJSON encodes the payload once (gzip-compressed JSON) and posts it,
// retrying per the client policy. The response body is returned for callers
// that decode an acknowledgement.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress payload: %w", err)
	}
	body := compressed.Bytes()

	var responseBody []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "gzip")
		req.Header.Set("X-API-Key", c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return err // network-level failure, retryable
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		if resp.StatusCode >= 500 {
			return &StatusError{Code: resp.StatusCode, Body: string(data)}
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: string(data)})
		}

		responseBody = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	if c.cfg.InitialBackoff > 0 {
		policy.InitialInterval = c.cfg.InitialBackoff
	}

	retries := uint64(c.cfg.MaxAttempts - 1)
	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx))
	if err != nil {
		return nil, fmt.Errorf("delivery to %s failed: %w", path, err)
	}
	return responseBody, nil
}

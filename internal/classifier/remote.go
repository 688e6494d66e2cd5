// AngelaMos | 2026
// remote.go

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/carterperez-dev/moderation-admin/internal/config"
)

// leveledSlog lowers retry noise: intermediate errors are retried, so they
// are logged as warnings.
type leveledSlog struct {
	inner *slog.Logger
}

func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// Remote asks a model server for verdicts. It POSTs {"text": ...} and
// expects {"is_offensive": bool, "confidence": float}.
type Remote struct {
	url       string
	token     string
	threshold float64
	client    *retryablehttp.Client
}

type remoteRequest struct {
	Text string `json:"text"`
}

type remoteResponse struct {
	IsOffensive *bool   `json:"is_offensive"`
	Confidence  float64 `json:"confidence"`
}

type RemoteOption func(*retryablehttp.Client)

func WithMaxRetries(n int) RemoteOption {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}

func WithRetryWait(minWait, maxWait time.Duration) RemoteOption {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = minWait
		c.RetryWaitMax = maxWait
	}
}

func NewRemote(cfg config.ClassifierConfig, logger *slog.Logger, opts ...RemoteOption) *Remote {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = retryablehttp.LeveledLogger(leveledSlog{
		inner: logger.With("subsystem", "classifier"),
	})
	client.CheckRetry = noRetryOnTooManyRequests
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}

	for _, opt := range opts {
		opt(client)
	}

	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}

	return &Remote{
		url:       cfg.RemoteURL,
		token:     cfg.APIToken,
		threshold: threshold,
		client:    client,
	}
}

func noRetryOnTooManyRequests(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Remote) Classify(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return Result{}, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // body fully read below

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // draining
		return Result{}, fmt.Errorf("classify: model server returned %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var out remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("classify: decode response: %w: %w", ErrUnavailable, err)
	}

	confidence := clamp01(out.Confidence)
	offensive := confidence >= c.threshold
	if out.IsOffensive != nil {
		offensive = *out.IsOffensive
	}

	return Result{IsOffensive: offensive, Confidence: confidence}, nil
}

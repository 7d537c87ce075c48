// Package fetcher executes single upstream HTTP calls with bounded
// exponential-backoff retry. It runs inside scheduled tasks, so its backoff
// sleeps add to the scheduler's pacing rather than bypassing it.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ctmes/CryptoTwin/internal/pkg/metrics"
)

// ErrRateLimited is surfaced when the retry budget is exhausted and the final
// attempt was rejected with HTTP 429.
var ErrRateLimited = errors.New("rate limit exceeded")

// Config holds the retry policy of a Fetcher.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialBackoff is the delay before the first retry; it doubles on each
	// subsequent retry up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// RequestTimeout bounds a single attempt when the context carries no
	// deadline.
	RequestTimeout time.Duration
}

// Fetcher performs GET requests against the upstream API, retrying transient
// failures (HTTP 429, any non-2xx status, transport errors) under one shared
// backoff schedule.
type Fetcher struct {
	client *fasthttp.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a Fetcher with the given retry policy.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &fasthttp.Client{},
		cfg:    cfg,
		logger: logger.Named("Fetcher"),
	}
}

// Fetch GETs url, retrying up to MaxRetries times after the first attempt.
// It returns the response body on the first 2xx response. After the budget is
// exhausted the last failure is returned; a final 429 yields an error
// wrapping ErrRateLimited.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	backoff := f.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.UpstreamRetries.Inc()
			f.logger.Debug("Retrying upstream request",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
			if backoff > f.cfg.MaxBackoff {
				backoff = f.cfg.MaxBackoff
			}
		}

		body, status, err := f.do(ctx, url)
		switch {
		case err != nil:
			metrics.UpstreamRequests.WithLabelValues("error").Inc()
			lastErr = fmt.Errorf("request to %s failed: %w", url, err)
		case status == fasthttp.StatusTooManyRequests:
			metrics.UpstreamRequests.WithLabelValues("429").Inc()
			lastErr = fmt.Errorf("request to %s: %w", url, ErrRateLimited)
		case status < 200 || status > 299:
			metrics.UpstreamRequests.WithLabelValues(statusClass(status)).Inc()
			lastErr = fmt.Errorf("request to %s failed with status %d", url, status)
		default:
			metrics.UpstreamRequests.WithLabelValues("2xx").Inc()
			return body, nil
		}
	}

	f.logger.Warn("Upstream request failed after retries",
		zap.String("url", url),
		zap.Int("attempts", f.cfg.MaxRetries+1),
		zap.Error(lastErr))
	return nil, lastErr
}

// do performs one attempt and returns a copy of the response body.
func (f *Fetcher) do(ctx context.Context, url string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := f.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, 0, err
		}
	} else {
		if err := f.client.DoTimeout(req, resp, f.cfg.RequestTimeout); err != nil {
			return nil, 0, err
		}
	}

	// The response buffer is reused after release; hand back a copy.
	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func statusClass(status int) string {
	if status >= 500 {
		return "5xx"
	}
	if status >= 400 {
		return "4xx"
	}
	return strconv.Itoa(status)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

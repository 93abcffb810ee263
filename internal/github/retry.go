package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/logging"
)

// RetryConfig configures retry behavior for GitHub API reads.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts. Zero disables
	// retries.
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff caps every wait, including waits for a rate limit reset.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func (c *RetryConfig) applyDefaults() {
	defaults := DefaultRetryConfig()
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = defaults.BackoffMultiplier
	}
}

// retry runs operation until it succeeds, fails with a permanent error, or
// the attempts are exhausted. It is only used for reads: a retried write
// could commit twice.
func retry(ctx context.Context, cfg RetryConfig, log *logging.Logger, op string, operation func() (*gh.Response, error)) (*gh.Response, error) {
	cfg.applyDefaults()

	var lastErr error
	var lastResp *gh.Response
	backoff := cfg.InitialBackoff
	start := time.Now()

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		resp, err := operation()
		if err == nil {
			if attempt > 0 {
				log.Info(ctx, "GitHub API operation recovered after retries",
					zap.String("op", op),
					zap.Int("attempts", attempt),
					zap.Duration("total_time", time.Since(start)),
				)
			}
			return resp, nil
		}

		lastErr, lastResp = err, resp
		if !isRetryable(err, resp) {
			log.Debug(ctx, "GitHub API error is not retryable",
				zap.String("op", op),
				zap.Error(err),
				zap.Int("status_code", statusCode(resp)),
			)
			return resp, err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		wait := backoff
		if isRateLimited(err, resp) {
			wait = rateLimitBackoff(err, resp, cfg.MaxBackoff)
		}
		log.Info(ctx, "retrying GitHub API operation after transient error",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", cfg.MaxRetries+1),
			zap.Error(err),
			zap.Int("status_code", statusCode(resp)),
			zap.Duration("backoff", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return resp, ctx.Err()
		case <-timer.C:
		}
		backoff = min(time.Duration(float64(backoff)*cfg.BackoffMultiplier), cfg.MaxBackoff)
	}

	if cfg.MaxRetries == 0 {
		return lastResp, lastErr
	}
	log.Warn(ctx, "GitHub API operation failed after all retries exhausted",
		zap.String("op", op),
		zap.Int("total_attempts", cfg.MaxRetries+1),
		zap.Duration("total_time", time.Since(start)),
		zap.Error(lastErr),
		zap.Int("status_code", statusCode(lastResp)),
	)
	return lastResp, fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// isRetryable reports whether a failed call may succeed if repeated.
func isRetryable(err error, resp *gh.Response) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if isRateLimited(err, resp) {
		return true
	}
	switch code := statusCode(resp); {
	case code == 0:
		// No response: network failure, connection reset, DNS.
		return true
	case code == http.StatusTooManyRequests:
		return true
	default:
		return code >= 500 && code < 600
	}
}

// isRateLimited detects primary and secondary rate limits.
func isRateLimited(err error, resp *gh.Response) bool {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	return errors.As(err, &rateErr) || errors.As(err, &abuseErr) ||
		statusCode(resp) == http.StatusTooManyRequests
}

// rateLimitBackoff waits until the advertised reset, capped at maxBackoff.
func rateLimitBackoff(err error, resp *gh.Response, maxBackoff time.Duration) time.Duration {
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return min(*abuseErr.RetryAfter, maxBackoff)
	}

	var reset time.Time
	var rateErr *gh.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		reset = rateErr.Rate.Reset.Time
	case resp != nil && !resp.Rate.Reset.Time.IsZero():
		reset = resp.Rate.Reset.Time
	default:
		return maxBackoff
	}

	// One second past the reset so the window has rolled over.
	backoff := time.Until(reset) + time.Second
	if backoff < time.Second {
		backoff = time.Second
	}
	return min(backoff, maxBackoff)
}

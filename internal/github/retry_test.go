package github

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/repository"
)

func response(code int) *gh.Response {
	return &gh.Response{Response: &http.Response{StatusCode: code}}
}

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxRetries: n, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestIsRetryable(t *testing.T) {
	apiErr := errors.New("api error")
	tests := []struct {
		name string
		err  error
		resp *gh.Response
		want bool
	}{
		{"nil error", nil, nil, false},
		{"network failure", apiErr, nil, true},
		{"canceled", context.Canceled, nil, false},
		{"deadline", context.DeadlineExceeded, nil, false},
		{"500", apiErr, response(500), true},
		{"502", apiErr, response(502), true},
		{"429", apiErr, response(429), true},
		{"404", apiErr, response(404), false},
		{"409", apiErr, response(409), false},
		{"422", apiErr, response(422), false},
		{"401", apiErr, response(401), false},
		{"403 plain", apiErr, response(403), false},
		{"403 rate limit", &gh.RateLimitError{Response: &http.Response{StatusCode: 403}}, response(403), true},
		{"403 secondary limit", &gh.AbuseRateLimitError{Response: &http.Response{StatusCode: 403}}, response(403), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err, tt.resp))
		})
	}
}

func TestKindOf(t *testing.T) {
	apiErr := errors.New("api error")
	tests := []struct {
		name string
		op   string
		err  error
		resp *gh.Response
		want error
	}{
		{"not found", repository.OpReadFile, apiErr, response(404), repository.ErrNotFound},
		{"conflict", repository.OpWriteFile, apiErr, response(409), repository.ErrConflict},
		{"write validation", repository.OpWriteFile, apiErr, response(422), repository.ErrConflict},
		{"branch exists", repository.OpCreateBranch, apiErr, response(422), repository.ErrAlreadyExists},
		{"pull request exists", repository.OpCreatePullRequest, apiErr, response(422), repository.ErrAlreadyExists},
		{"unauthorized", repository.OpReadFile, apiErr, response(401), repository.ErrPermissionDenied},
		{"forbidden", repository.OpReadFile, apiErr, response(403), repository.ErrPermissionDenied},
		{"rate limited", repository.OpReadFile, &gh.RateLimitError{}, response(403), repository.ErrRemoteUnavailable},
		{"server error", repository.OpReadFile, apiErr, response(503), repository.ErrRemoteUnavailable},
		{"no response", repository.OpReadFile, apiErr, nil, repository.ErrRemoteUnavailable},
		{"canceled", repository.OpReadFile, context.Canceled, nil, nil},
		{"bad request", repository.OpReadFile, apiErr, response(400), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kindOf(tt.op, tt.resp, tt.err))
		})
	}
}

func TestRateLimitBackoff(t *testing.T) {
	retryAfter := 3 * time.Second
	abuse := &gh.AbuseRateLimitError{RetryAfter: &retryAfter}
	assert.Equal(t, 3*time.Second, rateLimitBackoff(abuse, nil, time.Minute))
	assert.Equal(t, time.Second, rateLimitBackoff(abuse, nil, time.Second), "capped")

	past := &gh.RateLimitError{Rate: gh.Rate{Reset: gh.Timestamp{Time: time.Now().Add(-time.Hour)}}}
	assert.Equal(t, time.Second, rateLimitBackoff(past, nil, time.Minute))

	future := &gh.RateLimitError{Rate: gh.Rate{Reset: gh.Timestamp{Time: time.Now().Add(time.Hour)}}}
	assert.Equal(t, time.Minute, rateLimitBackoff(future, nil, time.Minute))

	assert.Equal(t, 5*time.Second, rateLimitBackoff(errors.New("x"), response(429), 5*time.Second))
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	log := logging.NewTestLogger()
	attempts := 0
	_, err := retry(context.Background(), fastRetry(3), log.Logger, repository.OpReadFile, func() (*gh.Response, error) {
		attempts++
		if attempts < 3 {
			return response(502), errors.New("bad gateway")
		}
		return response(200), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	log.AssertLogged(t, zapcore.InfoLevel, "retrying GitHub API operation")
	log.AssertField(t, "recovered after retries", "attempts", int64(2))
	log.AssertField(t, "recovered after retries", "op", repository.OpReadFile)
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	log := logging.NewTestLogger()
	attempts := 0
	_, err := retry(context.Background(), fastRetry(3), log.Logger, repository.OpReadFile, func() (*gh.Response, error) {
		attempts++
		return response(404), errors.New("not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.NotContains(t, err.Error(), "failed after")
	log.AssertLogged(t, zapcore.DebugLevel, "not retryable")
	log.AssertNotLogged(t, zapcore.InfoLevel, "retrying")
}

func TestRetry_Exhausted(t *testing.T) {
	log := logging.NewTestLogger()
	cause := errors.New("unavailable")
	attempts := 0
	_, err := retry(context.Background(), fastRetry(2), log.Logger, repository.OpListFiles, func() (*gh.Response, error) {
		attempts++
		return response(503), cause
	})

	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "failed after 2 retries")
	assert.Equal(t, 3, attempts)
	log.AssertField(t, "all retries exhausted", "total_attempts", int64(3))
}

func TestRetry_ZeroRetries(t *testing.T) {
	cause := errors.New("unavailable")
	attempts := 0
	_, err := retry(context.Background(), fastRetry(0), logging.NewNop(), repository.OpReadFile, func() (*gh.Response, error) {
		attempts++
		return response(503), cause
	})

	assert.Same(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxRetries: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour}
	attempts := 0
	_, err := retry(ctx, cfg, logging.NewNop(), repository.OpReadFile, func() (*gh.Response, error) {
		attempts++
		cancel()
		return response(500), errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

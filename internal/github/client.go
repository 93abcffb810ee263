// Package github implements the article repository on top of the GitHub
// REST API.
package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/kbsync/internal/config"
)

// ClientConfig holds GitHub client configuration.
type ClientConfig struct {
	Token config.Secret
	// BaseURL is the GitHub Enterprise API URL. Empty means github.com.
	BaseURL string
	// Timeout bounds every HTTP request. Zero means no timeout.
	Timeout time.Duration
}

// NewClient creates an authenticated GitHub client.
func NewClient(ctx context.Context, cfg ClientConfig) (*gh.Client, error) {
	if !cfg.Token.IsSet() {
		return nil, fmt.Errorf("GitHub token not set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = cfg.Timeout

	client := gh.NewClient(hc)
	if cfg.BaseURL == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", cfg.BaseURL, err)
	}
	return client, nil
}

// statusCode safely extracts the HTTP status code from a GitHub response.
func statusCode(resp *gh.Response) int {
	if resp != nil && resp.Response != nil {
		return resp.Response.StatusCode
	}
	return 0
}

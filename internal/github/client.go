// Package github fetches rule and transcript markdown from the rules
// repository via the GitHub content API.
package github

import (
	"context"
	"os"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limiting.
type Client struct {
	*github.Client
}

// NewClient creates a rate-limit-aware GitHub client. GITHUB_TOKEN, when
// set, raises the rate limit from 60 to 5000 requests/hour.
func NewClient(ctx context.Context) (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{Client: ghClient}, nil
}

package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Ensure Client implements the port.
var _ driven.GitHostClient = (*Client)(nil)

// Client wraps the go-github client with helper methods.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub API client with a static access token.
// Works for both PAT and OAuth access tokens. An empty token yields an
// unauthenticated client limited to public repositories.
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		return &Client{
			gh:          gh.NewClient(nil),
			rateLimiter: NewRateLimiter(),
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Client{
		gh:          gh.NewClient(tc),
		rateLimiter: NewRateLimiter(),
	}
}

// GetDefaultBranch returns the repository's default branch name.
func (c *Client) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", c.wrapError(err, "get repository")
	}

	c.updateRateLimitFromResponse(resp)
	return r.GetDefaultBranch(), nil
}

// GetBranchHead returns the latest commit SHA on a branch.
func (c *Client) GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	b, resp, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 2)
	if err != nil {
		return "", c.wrapError(err, "get branch")
	}

	c.updateRateLimitFromResponse(resp)
	return b.GetCommit().GetSHA(), nil
}

// GetTree fetches the entire tree for a repository recursively and
// returns its blob entries. Directory entries are dropped.
func (c *Client) GetTree(ctx context.Context, owner, repo, sha string) ([]driven.TreeEntry, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, owner, repo, sha, true) // recursive=true
	if err != nil {
		return nil, c.wrapError(err, "get tree")
	}

	c.updateRateLimitFromResponse(resp)

	entries := make([]driven.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		entries = append(entries, driven.TreeEntry{
			Path: entry.GetPath(),
			SHA:  entry.GetSHA(),
			Size: int64(entry.GetSize()),
		})
	}

	return entries, nil
}

// GetBlob fetches a blob by SHA and decodes its content.
func (c *Client) GetBlob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	blob, resp, err := c.gh.Git.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, c.wrapError(err, "get blob")
	}

	c.updateRateLimitFromResponse(resp)

	if blob.GetEncoding() == "base64" {
		// The API wraps base64 payloads with newlines
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("decode blob %s: %w", sha, err)
		}
		return decoded, nil
	}

	return []byte(blob.GetContent()), nil
}

// CreateWebhook registers a push webhook for the repository.
func (c *Client) CreateWebhook(ctx context.Context, owner, repo, callbackURL, secret string) (int64, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	hook := &gh.Hook{
		Events: []string{"push"},
		Active: gh.Ptr(true),
		Config: &gh.HookConfig{
			URL:         gh.Ptr(callbackURL),
			ContentType: gh.Ptr("json"),
			Secret:      gh.Ptr(secret),
		},
	}

	created, resp, err := c.gh.Repositories.CreateHook(ctx, owner, repo, hook)
	if err != nil {
		return 0, c.wrapError(err, "create hook")
	}

	c.updateRateLimitFromResponse(resp)
	return created.GetID(), nil
}

// DeleteWebhook removes a push webhook by ID.
func (c *Client) DeleteWebhook(ctx context.Context, owner, repo string, hookID int64) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.gh.Repositories.DeleteHook(ctx, owner, repo, hookID)
	if err != nil {
		return c.wrapError(err, "delete hook")
	}

	c.updateRateLimitFromResponse(resp)
	return nil
}

// ValidateCredentials checks the configured token by making an API call.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return c.wrapError(err, "validate credentials")
	}

	c.updateRateLimitFromResponse(resp)
	return nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        ghErr.Response.Request.URL.String(),
		}
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}

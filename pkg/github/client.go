// Package github resolves the repository field of collected records to live
// repository status, used by the report --enrich path.
package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client with authentication.
type Client struct {
	client *github.Client
}

// RepoInfo holds repository status for one package's source repository.
type RepoInfo struct {
	UpdatedAt    time.Time
	LastCommitAt *time.Time
	Description  string
	URL          string
	IsArchived   bool
	Exists       bool
}

// NewClient creates a new authenticated GitHub client and validates the
// token before returning it.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, errors.New("GitHub token is required")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := &Client{client: github.NewClient(tc)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.ValidateToken(ctx); err != nil {
		return nil, fmt.Errorf("GitHub token validation failed: %w", err)
	}
	return client, nil
}

// ValidateToken checks that the token can read public repositories. Works
// for both PATs and Actions tokens.
func (c *Client) ValidateToken(ctx context.Context) error {
	if c.client == nil {
		return errors.New("GitHub client is nil")
	}

	_, resp, err := c.client.Repositories.Get(ctx, "facebook", "react")
	if err != nil && resp != nil {
		switch resp.StatusCode {
		case 401:
			return errors.New("invalid or expired GitHub token")
		case 403:
			if resp.Header.Get("X-RateLimit-Remaining") == "0" {
				return errors.New("GitHub API rate limit exceeded")
			}
			return errors.New("GitHub token lacks permission to read public repositories")
		}
	}
	// Other failures (network blips, 404) should not block reporting.
	return nil
}

// GetRepositoryInfo fetches repository status for owner/repo.
func (c *Client) GetRepositoryInfo(ctx context.Context, owner, repo string) (*RepoInfo, error) {
	if c.client == nil {
		return nil, errors.New("GitHub client is nil")
	}
	if owner == "" || repo == "" {
		return nil, errors.New("owner and repo name must be provided")
	}

	repository, resp, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case 404:
				return &RepoInfo{Exists: false}, nil
			case 403:
				if resp.Header.Get("X-RateLimit-Remaining") == "0" {
					return nil, fmt.Errorf("GitHub API rate limit exceeded: %w", err)
				}
				return nil, fmt.Errorf("GitHub API access forbidden: %w", err)
			case 401:
				return nil, fmt.Errorf("GitHub API authentication failed (check your token): %w", err)
			}
		}
		return nil, fmt.Errorf("failed to fetch repository: %w", err)
	}
	if repository == nil {
		return &RepoInfo{Exists: false}, nil
	}

	info := &RepoInfo{
		Exists:      true,
		IsArchived:  repository.GetArchived(),
		Description: repository.GetDescription(),
		UpdatedAt:   repository.GetUpdatedAt().Time,
		URL:         repository.GetHTMLURL(),
	}

	commits, _, err := c.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	// Commit info is best-effort; the repository status alone is enough.
	if err == nil && len(commits) > 0 {
		commitDate := commits[0].GetCommit().GetCommitter().GetDate()
		info.LastCommitAt = &commitDate
	}

	return info, nil
}

// ActiveWithin reports whether the repository saw activity inside maxAge,
// using the latest of UpdatedAt and LastCommitAt.
func (info *RepoInfo) ActiveWithin(maxAge time.Duration) bool {
	if !info.Exists {
		return false
	}

	latest := info.UpdatedAt
	if info.LastCommitAt != nil && info.LastCommitAt.After(latest) {
		latest = *info.LastCommitAt
	}
	return time.Since(latest) <= maxAge
}

// ParseRepositoryURL extracts owner and repo from the repository field of a
// collected record. npm metadata uses several URL shapes, e.g.
// "https://github.com/facebook/react", "git+ssh://git@github.com/x/y.git" or
// a bare "github.com/x/y".
func ParseRepositoryURL(raw string) (owner, repo string, err error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		s = strings.TrimPrefix(s, scheme)
	}
	s = strings.TrimPrefix(s, "git@")
	s = strings.Replace(s, "github.com:", "github.com/", 1)

	if !strings.HasPrefix(s, "github.com/") {
		return "", "", fmt.Errorf("repository %q is not hosted on github.com", raw)
	}

	parts := strings.Split(strings.TrimPrefix(s, "github.com/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository %q has no owner/name path", raw)
	}

	repo = strings.TrimSuffix(parts[1], ".git")
	return parts[0], repo, nil
}

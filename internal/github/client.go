package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Kamar-Folarin/github-trending/internal/config"
	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/models"
)

// GitHubClient fetches the most-starred repositories from the search API
type GitHubClient struct {
	client     *gh.Client
	httpClient *http.Client
	config     *config.GitHubConfig
	logger     *logrus.Logger
}

// ClientOption allows configuring the GitHub client
type ClientOption func(*GitHubClient)

// WithHTTPClient replaces the transport used for API calls
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *GitHubClient) {
		c.httpClient = httpClient
	}
}

// NewGitHubClient creates a new GitHub client. Requests are anonymous unless
// cfg.Token is set.
func NewGitHubClient(cfg *config.GitHubConfig, logger *logrus.Logger, opts ...ClientOption) (*GitHubClient, error) {
	c := &GitHubClient{
		config: cfg,
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		if cfg.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
			c.httpClient = oauth2.NewClient(context.Background(), ts)
		} else {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = cfg.Timeout
	}

	c.client = gh.NewClient(c.httpClient)

	if cfg.APIBaseURL != "" {
		base := cfg.APIBaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.APIBaseURL, err)
		}
		c.client.BaseURL = u
	}

	return c, nil
}

// FetchTopRepositories runs the configured search and maps every result into
// a snapshot, preserving the API's ranking.
func (c *GitHubClient) FetchTopRepositories(ctx context.Context) ([]*models.Snapshot, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"query": c.config.Query,
		"sort":  c.config.Sort,
		"order": c.config.Order,
	})
	logger.Debug("Requesting repositories from GitHub search API")

	opts := &gh.SearchOptions{
		Sort:  c.config.Sort,
		Order: c.config.Order,
		ListOptions: gh.ListOptions{
			PerPage: c.config.PerPage,
		},
	}

	result, resp, err := c.client.Search.Repositories(ctx, c.config.Query, opts)
	if err != nil {
		return nil, errors.NewFetchError("failed to search repositories", c.translateError(resp, err))
	}

	if resp != nil && resp.Rate.Limit > 0 {
		logger.WithField("rate_limit_remaining", resp.Rate.Remaining).Debug("Rate limit info")
	}

	snapshots := make([]*models.Snapshot, 0, len(result.Repositories))
	for _, repo := range result.Repositories {
		snapshots = append(snapshots, toSnapshot(repo))
	}

	logger.WithField("count", len(snapshots)).Debug("Fetch complete")
	return snapshots, nil
}

func toSnapshot(repo *gh.Repository) *models.Snapshot {
	s := &models.Snapshot{
		ID:    repo.GetID(),
		Name:  repo.GetName(),
		Owner: repo.GetOwner().GetLogin(),
		Stars: int64(repo.GetStargazersCount()),
	}
	if repo.Language != nil {
		lang := *repo.Language
		s.Language = &lang
	}
	return s
}

func (c *GitHubClient) translateError(resp *gh.Response, err error) error {
	var rateErr *gh.RateLimitError
	if stderrors.As(err, &rateErr) {
		limited := &RateLimitError{
			Reset:     rateErr.Rate.Reset.Time,
			Limit:     rateErr.Rate.Limit,
			Remaining: rateErr.Rate.Remaining,
		}
		c.logger.WithField("retry_after", limited.RetryAfter(time.Now()).Round(time.Second)).Warn("Search rate limit exceeded")
		return limited
	}

	searchErr := &SearchError{Query: c.config.Query, Err: err}
	if resp != nil && resp.Response != nil {
		searchErr.StatusCode = resp.StatusCode
	}
	return searchErr
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	var rateErr *RateLimitError
	return stderrors.As(err, &rateErr)
}

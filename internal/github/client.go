// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	apperrors "github-cve-monitor/internal/errors"
	"github-cve-monitor/internal/model"
)

const resultsPerPage = 30

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. When token is empty
// the client stays unauthenticated instead of sending a bogus bearer header.
func NewClient(token string, logger *slog.Logger) *Client {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		hc = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:     github.NewClient(hc),
		logger: logger,
	}
}

// SearchRepositories fetches one page of repositories matching the search
// term scoped to the current calendar year, most recently updated first.
func (c *Client) SearchRepositories(ctx context.Context, term string) (*model.SearchResult, error) {
	query := fmt.Sprintf("%s-%d", term, time.Now().Year())
	opts := &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: resultsPerPage},
	}

	c.logger.Debug("Searching repositories", "query", query)
	res, _, err := c.gh.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories: %w", err)
	}
	if res.Total == nil {
		return nil, &apperrors.ErrMalformedResponse{Field: "total_count"}
	}

	result := &model.SearchResult{
		TotalCount: res.GetTotal(),
		Items:      make([]model.Repository, 0, len(res.Repositories)),
	}
	for _, r := range res.Repositories {
		if r.GetID() == 0 || r.GetHTMLURL() == "" {
			c.logger.Warn("Skipping malformed search result item", "name", r.GetName())
			continue
		}
		result.Items = append(result.Items, toRepository(r))
	}
	return result, nil
}

// OverrideBaseURL points the client at a different API root. Used by tests
// that stand in for the GitHub API.
func (c *Client) OverrideBaseURL(rawURL string) error {
	gh, err := c.gh.WithEnterpriseURLs(rawURL, rawURL)
	if err != nil {
		return err
	}
	c.gh = gh
	return nil
}

// toRepository translates a github.Repository object to our internal model.
func toRepository(r *github.Repository) model.Repository {
	return model.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		URL:         r.GetHTMLURL(),
		PushedAt:    formatTimestamp(r.GetPushedAt()),
		CreatedAt:   formatTimestamp(r.GetCreatedAt()),
		UpdatedAt:   formatTimestamp(r.GetUpdatedAt()),
	}
}

func formatTimestamp(ts github.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

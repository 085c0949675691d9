package config

import "time"

// GitHubConfig holds GitHub-specific configuration
type GitHubConfig struct {
	Token      string
	APIBaseURL string
	Query      string
	Sort       string
	Order      string
	PerPage    int
	Timeout    time.Duration
}

// DefaultGitHubConfig returns the default GitHub configuration
func DefaultGitHubConfig() *GitHubConfig {
	return &GitHubConfig{
		APIBaseURL: "https://api.github.com/",
		Query:      "stars:>=100000",
		Sort:       "stars",
		Order:      "desc",
		PerPage:    30,
		Timeout:    30 * time.Second,
	}
}

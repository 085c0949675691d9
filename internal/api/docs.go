package api

import (
	"github.com/Kamar-Folarin/github-trending/internal/models"

	_ "github.com/Kamar-Folarin/github-trending/docs"
)

// RepositoryListResponse is the body of GET /repos
// @Description Every cached repository, most starred first
type RepositoryListResponse struct {
	Repositories []*models.Snapshot `json:"repositories"`
	Count        int                `json:"count" example:"30"`
}

// Status is the body of GET /status
// @Description Sync engine state
type Status struct {
	// Offline is true when network activity is disabled
	Offline bool `json:"offline" example:"false"`
	// Scheduled is true while the periodic refresh is running
	Scheduled bool `json:"scheduled" example:"true"`
	// Interval between scheduled refreshes
	Interval string `json:"interval" example:"5m0s"`
	// Count of cached repositories
	Count int64 `json:"count" example:"30"`
	// LastSync summarises the most recent successful cycle
	LastSync *models.SyncReport `json:"last_sync,omitempty"`
}

// ErrorResponse represents an error response
// @Description Error response
type ErrorResponse struct {
	Error string `json:"error" example:"repository not found"`
}

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/models"
)

// SnapshotReader is the read side of the snapshot store
type SnapshotReader interface {
	ListSnapshots(ctx context.Context) ([]*models.Snapshot, error)
	GetSnapshot(ctx context.Context, id int64) (*models.Snapshot, error)
	GetSnapshotByName(ctx context.Context, name string) (*models.Snapshot, error)
}

// StatusProvider reports the sync engine state
type StatusProvider interface {
	Status(ctx context.Context) Status
}

type Handler struct {
	store  SnapshotReader
	status StatusProvider
	logger *logrus.Logger
}

func NewHandler(store SnapshotReader, status StatusProvider, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		status: status,
		logger: logger,
	}
}

// ListRepositories godoc
// @Summary List cached repositories
// @Description Every cached repository, most starred first
// @Tags repositories
// @Produce json
// @Success 200 {object} RepositoryListResponse
// @Failure 500 {object} ErrorResponse
// @Router /repos [get]
func (h *Handler) ListRepositories(c *gin.Context) {
	snapshots, err := h.store.ListSnapshots(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list repositories")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list repositories"})
		return
	}
	if snapshots == nil {
		snapshots = []*models.Snapshot{}
	}

	c.JSON(http.StatusOK, RepositoryListResponse{
		Repositories: snapshots,
		Count:        len(snapshots),
	})
}

// GetRepository godoc
// @Summary Get a cached repository
// @Description Looks the repository up by numeric id, otherwise by exact name
// @Tags repositories
// @Produce json
// @Param key path string true "Repository id or name"
// @Success 200 {object} models.Snapshot
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /repos/{key} [get]
func (h *Handler) GetRepository(c *gin.Context) {
	key := c.Param("key")
	ctx := c.Request.Context()

	var (
		snapshot *models.Snapshot
		err      error
	)
	if id, convErr := strconv.ParseInt(key, 10, 64); convErr == nil {
		snapshot, err = h.store.GetSnapshot(ctx, id)
	} else {
		snapshot, err = h.store.GetSnapshotByName(ctx, key)
	}

	if err != nil {
		if errors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: key + " not found"})
			return
		}
		h.logger.WithError(err).WithField("key", key).Error("Failed to get repository")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get repository"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetStatus godoc
// @Summary Sync status
// @Description Offline flag, schedule state and the last sync report
// @Tags status
// @Produce json
// @Success 200 {object} Status
// @Router /status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status(c.Request.Context()))
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/communitykit/activitysync/internal/models"
	"github.com/communitykit/activitysync/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// BatchRunner runs one sync batch. *services.SyncRunner satisfies it.
type BatchRunner interface {
	RunBatch(ctx context.Context) (*services.BatchSummary, error)
}

// ConnectionCounter reports stored connections per provider.
type ConnectionCounter interface {
	CountConnectionsByProvider(ctx context.Context) (map[models.Provider]int64, error)
}

// SyncHandler serves the machine-to-machine sync endpoints.
type SyncHandler struct {
	runner  BatchRunner
	counter ConnectionCounter
}

func NewSyncHandler(runner BatchRunner, counter ConnectionCounter) *SyncHandler {
	return &SyncHandler{runner: runner, counter: counter}
}

// TriggerSync runs one batch over every syncable connection.
// POST /api/sync/activities
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	start := time.Now()
	summary, err := h.runner.RunBatch(c.Request.Context())
	duration := time.Since(start)

	switch {
	case errors.Is(err, services.ErrBatchInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "A sync is already running",
		})
		return
	case err != nil:
		log.Error().Err(err).Msg("sync batch failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Sync failed",
		})
		return
	}

	if summary.Total == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "No connections to sync",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"summary":  summary,
		"duration": fmt.Sprintf("%dms", duration.Milliseconds()),
	})
}

// Status reports how many connections each syncable provider has.
// GET /api/sync/activities
func (h *SyncHandler) Status(c *gin.Context) {
	counts, err := h.counter.CountConnectionsByProvider(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count connections")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load sync status",
		})
		return
	}

	connections := make(map[models.Provider]int64, len(models.SyncableProviders))
	var total int64
	for _, p := range models.SyncableProviders {
		connections[p] = counts[p]
		total += counts[p]
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"connections": connections,
		"total":       total,
	})
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/sheet-blog/app/tasks"
)

func NewHandler(buildLog *tasks.BuildLog, scheduler tasks.TaskSchedulerInterface, source, version string) *Handler {
	return &Handler{
		buildLog:  buildLog,
		scheduler: scheduler,
		source:    source,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	status := h.buildLog.Status()
	if status.Last != nil {
		health["last_build"] = map[string]interface{}{
			"id":          status.Last.TaskID,
			"finished_at": status.Last.FinishedAt.Format(time.RFC3339),
			"duration":    status.Last.Duration.String(),
			"records":     status.Last.Records,
			"posts":       status.Last.Generated,
		}
	}
	if status.LastError != nil {
		health["last_error"] = map[string]interface{}{
			"failed_at": status.FailedAt.Format(time.RFC3339),
			"error":     status.LastError.Error(),
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListPosts(c *gin.Context) {
	status := h.buildLog.Status()
	if status.Last == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No successful build yet"})
		return
	}

	c.Header("X-Posts-Count", strconv.Itoa(len(status.Last.Listing)))
	c.Header("X-Last-Updated", status.Last.FinishedAt.Format(time.RFC3339))

	c.JSON(http.StatusOK, gin.H{
		"posts":      status.Last.Listing,
		"total":      len(status.Last.Listing),
		"collisions": status.Last.Collisions,
		"source":     h.source,
	})
}

func (h *Handler) APIBuild(c *gin.Context) {
	task, err := h.scheduler.EnqueueBuild()
	if err != nil {
		slog.Error("Error enqueueing build task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue build task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Build enqueued",
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

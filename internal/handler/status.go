package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Status reports the outcome of the most recent posting cycle.
func (h *Handler) Status(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.status")
	defer span.End()

	outcome := h.gate.LastOutcome()
	if outcome == nil {
		c.JSON(http.StatusOK, gin.H{"status": "waiting for first cycle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"outcome": outcome,
	})
}

// GetRecentPosts returns up to `limit` archived posts, newest first.
func (h *Handler) GetRecentPosts(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "post archive unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.recent-posts")
	defer span.End()

	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	posts, err := h.archive.RecentPosts(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

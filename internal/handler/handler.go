package handler

import (
	"context"

	"marketpulse/internal/agent"
	"marketpulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// OutcomeReader exposes the last cycle outcome for the status endpoint.
type OutcomeReader interface {
	LastOutcome() *agent.Outcome
}

// ArchiveReader serves archived posts. May be nil when no archive is
// configured.
type ArchiveReader interface {
	RecentPosts(ctx context.Context, limit int) ([]domain.Post, error)
}

type Handler struct {
	tracer  trace.Tracer
	gate    OutcomeReader
	archive ArchiveReader
}

func New(tracer trace.Tracer, gate OutcomeReader, archive ArchiveReader) *Handler {
	return &Handler{
		tracer:  tracer,
		gate:    gate,
		archive: archive,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/status", h.Status)
	r.GET("/api/posts", h.GetRecentPosts)
}

package handler

import (
	"context"

	"metior/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// SnapshotProvider is the service surface the HTTP layer needs.
type SnapshotProvider interface {
	GetByDate(ctx context.Context, date string) (*domain.Snapshot, error)
	GetLatest(ctx context.Context) (*domain.Snapshot, error)
	BuildLive(ctx context.Context) (*domain.Snapshot, error)
	Dates(ctx context.Context) []string
}

type Handler struct {
	tracer    trace.Tracer
	snapshots SnapshotProvider
	apiKey    string
}

func New(tracer trace.Tracer, snapshots SnapshotProvider, apiKey string) *Handler {
	return &Handler{
		tracer:    tracer,
		snapshots: snapshots,
		apiKey:    apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/snapshot", h.GetLatestSnapshot)
	r.GET("/api/snapshot/dates", h.GetSnapshotDates)
	r.GET("/api/snapshot/:date", h.GetSnapshotByDate)
	r.GET("/api/snapshot/:date/csv", h.GetSnapshotCSV)
	r.POST("/api/snapshot/live", APIKeyAuth(h.apiKey), h.TriggerLiveBuild)
}

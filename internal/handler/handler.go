package handler

import (
	"context"

	"github.com/nevernicce/dashboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ReportBuilder is the slice of the report service the HTTP surface
// needs: build only, never deliver.
type ReportBuilder interface {
	BuildAutomated(ctx context.Context) (domain.ReportDocument, error)
}

type Handler struct {
	tracer  trace.Tracer
	reports ReportBuilder
}

func New(tracer trace.Tracer, reports ReportBuilder) *Handler {
	return &Handler{tracer: tracer, reports: reports}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/report/preview", h.ReportPreview)
}

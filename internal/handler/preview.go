package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ReportPreview builds the automated report and returns it as JSON
// without posting anywhere. Useful to inspect what the next channel
// post would look like.
func (h *Handler) ReportPreview(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.report-preview")
	defer span.End()

	doc, err := h.reports.BuildAutomated(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"segments": doc.Segments,
		"text":     strings.Join(doc.Segments, "\n\n"),
	})
}

package handler

import (
	"errors"
	"net/http"

	"quote-desk/internal/service"

	"github.com/gin-gonic/gin"
)

// GetIntelligence godoc
// @Summary      Get the trending market feed
// @Description  Returns the cached feed without waiting for a refresh. stale is true when the feed is older than two refresh intervals.
// @Tags         intelligence
// @Produce      json
// @Success      200  {object}  domain.IntelligenceSnapshot
// @Router       /api/intelligence [get]
func (h *Handler) GetIntelligence(c *gin.Context) {
	if h.svc.Intelligence == nil {
		unavailable(c, "intelligence feed unavailable")
		return
	}
	c.JSON(http.StatusOK, h.svc.Intelligence.Snapshot())
}

// RefreshIntelligence godoc
// @Summary      Refresh the trending market feed
// @Description  Runs one refresh now. Answers 409 when a refresh is already running.
// @Tags         intelligence
// @Produce      json
// @Success      200  {object}  domain.IntelligenceSnapshot
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/intelligence/refresh [post]
func (h *Handler) RefreshIntelligence(c *gin.Context) {
	if h.svc.Intelligence == nil {
		unavailable(c, "intelligence feed unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh-intelligence")
	defer span.End()

	err := h.svc.Intelligence.Refresh(ctx)
	if errors.Is(err, service.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Intelligence.Snapshot())
}

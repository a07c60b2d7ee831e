package handler

import (
	"net/http"

	"quote-desk/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type watchlistRequest struct {
	Entries []domain.WatchlistEntry `json:"entries"`
}

// WatchlistSummary godoc
// @Summary      Summarize a watchlist
// @Description  Prices every entry and computes per-entry and weight-normalized returns since entry
// @Tags         watchlist
// @Accept       json
// @Produce      json
// @Param        request  body  watchlistRequest  true  "Watchlist entries kept by the client"
// @Success      200  {object}  domain.WatchlistSummary
// @Failure      400  {object}  map[string]string
// @Router       /api/watchlist/summary [post]
func (h *Handler) WatchlistSummary(c *gin.Context) {
	if h.svc.Watchlist == nil {
		unavailable(c, "watchlist service unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.watchlist-summary")
	defer span.End()

	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("entries", len(req.Entries)))

	c.JSON(http.StatusOK, h.svc.Watchlist.Summarize(ctx, req.Entries))
}

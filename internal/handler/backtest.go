package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"quote-desk/internal/domain"
	"quote-desk/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const maxRunsLimit = 100

// RunBacktest godoc
// @Summary      Backtest an equal-weight portfolio
// @Description  Buys every symbol in equal amounts on the first common date and holds. Symbols without history are dropped.
// @Tags         backtest
// @Accept       json
// @Produce      json
// @Param        request  body  domain.BacktestRequest  true  "Symbols, date range and initial capital"
// @Success      200  {object}  domain.BacktestResult
// @Failure      400  {object}  map[string]string
// @Router       /api/backtest [post]
func (h *Handler) RunBacktest(c *gin.Context) {
	result, ok := h.runBacktest(c, "handler.run-backtest")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// BacktestChart godoc
// @Summary      Render a backtest NAV chart
// @Description  Runs the backtest and returns the NAV curve as a PNG image
// @Tags         backtest
// @Accept       json
// @Produce      png
// @Param        request  body  domain.BacktestRequest  true  "Symbols, date range and initial capital"
// @Success      200  {file}  binary
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /api/backtest/chart [post]
func (h *Handler) BacktestChart(c *gin.Context) {
	result, ok := h.runBacktest(c, "handler.backtest-chart")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := service.RenderNAVChart(result, &buf); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ListBacktestRuns godoc
// @Summary      List stored backtest runs
// @Description  Returns the most recent persisted runs, newest first. Empty when no run store is configured.
// @Tags         backtest
// @Produce      json
// @Param        limit  query  int  false  "Number of runs (default 20, max 100)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/backtest/runs [get]
func (h *Handler) ListBacktestRuns(c *gin.Context) {
	if h.svc.Backtest == nil {
		unavailable(c, "backtest service unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-backtest-runs")
	defer span.End()

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.svc.Backtest.ListRuns(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) runBacktest(c *gin.Context, spanName string) (*domain.BacktestResult, bool) {
	if h.svc.Backtest == nil {
		unavailable(c, "backtest service unavailable")
		return nil, false
	}
	ctx, span := h.tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	var req domain.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	span.SetAttributes(attribute.StringSlice("symbols", req.Symbols))

	result, err := h.svc.Backtest.Run(ctx, req)
	if errors.Is(err, service.ErrInvalidBacktest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return result, true
}

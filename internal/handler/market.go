package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"quote-desk/internal/domain"
	"quote-desk/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetQuote godoc
// @Summary      Get a real-time quote
// @Description  Tries Tencent, Sina, Yahoo and page extraction for A-share codes, Yahoo and page extraction otherwise
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Stock or fund code (e.g., 600519, sh600519, AAPL)"
// @Success      200  {object}  domain.Quote
// @Failure      404  {object}  map[string]string
// @Router       /api/quote/{symbol} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	if h.svc.Market == nil {
		unavailable(c, "quote service unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	q, err := h.svc.Market.GetQuote(ctx, symbol)
	if errors.Is(err, service.ErrInvalidSymbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil || q == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quote not available for " + symbol})
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetHistory godoc
// @Summary      Get daily closes
// @Description  Returns daily closes in ascending date order. Defaults to the last year.
// @Tags         market
// @Produce      json
// @Param        symbol  path   string  true   "Stock or fund code"
// @Param        from    query  string  false  "Start date (YYYY-MM-DD)"
// @Param        to      query  string  false  "End date (YYYY-MM-DD)"
// @Success      200  {object}  domain.HistorySeries
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/history/{symbol} [get]
func (h *Handler) GetHistory(c *gin.Context) {
	if h.svc.Market == nil {
		unavailable(c, "history service unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	from, to, err := h.dateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.svc.Market.GetHistory(ctx, symbol, from, to)
	if errors.Is(err, service.ErrInvalidSymbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil || series == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history not available for " + symbol})
		return
	}
	c.JSON(http.StatusOK, series)
}

// GetFinancials godoc
// @Summary      Get headline financials
// @Description  Returns the latest annual revenue and net income
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Stock or fund code"
// @Success      200  {object}  domain.Financials
// @Failure      404  {object}  map[string]string
// @Router       /api/financials/{symbol} [get]
func (h *Handler) GetFinancials(c *gin.Context) {
	if h.svc.Market == nil {
		unavailable(c, "financials service unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-financials")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	f, err := h.svc.Market.GetFinancials(ctx, symbol)
	if errors.Is(err, service.ErrInvalidSymbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil || f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "financials not available for " + symbol})
		return
	}
	c.JSON(http.StatusOK, f)
}

// GetNews godoc
// @Summary      Get topic-segmented news
// @Description  Searches base, policy, industry and finance topics and returns both the merged list and the per-topic map
// @Tags         market
// @Produce      json
// @Param        symbol  path   string  true   "Stock or fund code"
// @Param        name    query  string  false  "Company name used as the base query"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/news/{symbol} [get]
func (h *Handler) GetNews(c *gin.Context) {
	if h.svc.News == nil {
		unavailable(c, "news service unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	news, byTopic := h.svc.News.FetchByTopic(ctx, symbol, c.Query("name"))
	if news == nil {
		news = []domain.NewsItem{}
	}
	c.JSON(http.StatusOK, gin.H{"news": news, "newsByTopic": byTopic})
}

// GetAnalysis godoc
// @Summary      Analyze a symbol
// @Description  Combines quote, one year of closes, financials and topic news into an LLM or templated analysis
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Stock or fund code"
// @Success      200  {object}  domain.AnalysisResult
// @Failure      400  {object}  map[string]string
// @Router       /api/analysis/{symbol} [get]
func (h *Handler) GetAnalysis(c *gin.Context) {
	if h.svc.Analysis == nil {
		unavailable(c, "analysis service unavailable")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-analysis")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	result := h.svc.Analysis.Analyze(ctx, symbol)
	if result == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// dateRange parses optional YYYY-MM-DD bounds. Missing bounds default to the year
// ending today.
func (h *Handler) dateRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	to := h.now().UTC().Truncate(24 * time.Hour)
	if toRaw != "" {
		t, err := time.Parse(domain.DateLayout, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
		to = t
	}
	from := to.AddDate(-1, 0, 0)
	if fromRaw != "" {
		t, err := time.Parse(domain.DateLayout, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, errors.New("from must not be after to")
	}
	return from, to, nil
}

func unavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
}

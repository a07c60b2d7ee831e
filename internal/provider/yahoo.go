package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quote-desk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// yahooRequestsPerSecond keeps us under the unauthenticated throttling threshold.
const yahooRequestsPerSecond = 4

// YahooProvider reads quotes, daily history and income statements from Yahoo Finance.
type YahooProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
	now     func() time.Time
}

func NewYahooProvider(tracer trace.Tracer, timeout time.Duration) *YahooProvider {
	return &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: yahooBaseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Limit(yahooRequestsPerSecond), yahooRequestsPerSecond),
		now:     time.Now,
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string  `json:"currency"`
				Symbol               string  `json:"symbol"`
				LongName             string  `json:"longName"`
				ShortName            string  `json:"shortName"`
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
				ChartPreviousClose   float64 `json:"chartPreviousClose"`
				PreviousClose        float64 `json:"previousClose"`
				GMTOffset            int     `json:"gmtoffset"`
				CurrentTradingPeriod struct {
					Regular struct {
						Start int64 `json:"start"`
						End   int64 `json:"end"`
					} `json:"regular"`
				} `json:"currentTradingPeriod"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchQuote reads the latest price from the chart endpoint's meta block.
func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-quote")
	defer span.End()

	ySymbol := domain.YahooSymbol(symbol)
	span.SetAttributes(attribute.String("symbol", ySymbol))

	chart, err := p.chart(ctx, ySymbol, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", ySymbol, err)
	}
	meta := chart.Chart.Result[0].Meta
	if !validPrice(meta.RegularMarketPrice) {
		return nil, fmt.Errorf("fetch quote %s: no price in response", ySymbol)
	}

	prev := meta.ChartPreviousClose
	if prev <= 0 {
		prev = meta.PreviousClose
	}
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}

	state := "CLOSED"
	now := p.now().Unix()
	if reg := meta.CurrentTradingPeriod.Regular; reg.Start > 0 && now >= reg.Start && now < reg.End {
		state = "REGULAR"
	}

	return &domain.Quote{
		Symbol:      symbol,
		Name:        name,
		Price:       meta.RegularMarketPrice,
		ChangePct:   changePct(meta.RegularMarketPrice, prev),
		Currency:    meta.Currency,
		MarketState: state,
		Source:      p.Name(),
	}, nil
}

// FetchHistory returns daily closes between from and to inclusive. Null closes are skipped.
func (p *YahooProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*domain.HistorySeries, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-history")
	defer span.End()

	ySymbol := domain.YahooSymbol(symbol)
	span.SetAttributes(attribute.String("symbol", ySymbol))

	params := url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprintf("%d", from.Unix())},
		"period2":  {fmt.Sprintf("%d", to.Add(24*time.Hour).Unix())},
	}
	chart, err := p.chart(ctx, ySymbol, params)
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", ySymbol, err)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("fetch history %s: no quote indicators", ySymbol)
	}
	closes := result.Indicators.Quote[0].Close
	loc := time.FixedZone("exchange", result.Meta.GMTOffset)

	series := make([]domain.HistoryPoint, 0, len(result.Timestamp))
	seen := make(map[string]bool, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || !validPrice(*closes[i]) {
			continue
		}
		date := time.Unix(ts, 0).In(loc).Format(domain.DateLayout)
		if seen[date] || !inRange(date, from, to) {
			continue
		}
		seen[date] = true
		series = append(series, domain.HistoryPoint{Date: date, Close: *closes[i]})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("fetch history %s: empty series", ySymbol)
	}

	return &domain.HistorySeries{Symbol: symbol, Series: series, Source: p.Name()}, nil
}

// FetchFinancials reads the most recent annual income statement.
func (p *YahooProvider) FetchFinancials(ctx context.Context, symbol string) (*domain.Financials, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-financials")
	defer span.End()

	ySymbol := domain.YahooSymbol(symbol)
	span.SetAttributes(attribute.String("symbol", ySymbol))

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=incomeStatementHistory,financialData",
		p.baseURL, url.PathEscape(ySymbol))
	body, err := p.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch financials %s: %w", ySymbol, err)
	}

	type rawValue struct {
		Raw *float64 `json:"raw"`
	}
	var raw struct {
		QuoteSummary struct {
			Result []struct {
				IncomeStatementHistory struct {
					Statements []struct {
						TotalRevenue rawValue `json:"totalRevenue"`
						NetIncome    rawValue `json:"netIncome"`
					} `json:"incomeStatementHistory"`
				} `json:"incomeStatementHistory"`
				FinancialData struct {
					FinancialCurrency string `json:"financialCurrency"`
				} `json:"financialData"`
			} `json:"result"`
			Error *struct {
				Description string `json:"description"`
			} `json:"error"`
		} `json:"quoteSummary"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse financials %s: %w", ySymbol, err)
	}
	if raw.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("fetch financials %s: %s", ySymbol, raw.QuoteSummary.Error.Description)
	}
	if len(raw.QuoteSummary.Result) == 0 || len(raw.QuoteSummary.Result[0].IncomeStatementHistory.Statements) == 0 {
		return nil, fmt.Errorf("fetch financials %s: no income statements", ySymbol)
	}

	res := raw.QuoteSummary.Result[0]
	latest := res.IncomeStatementHistory.Statements[0]
	out := &domain.Financials{
		Revenue:   latest.TotalRevenue.Raw,
		NetIncome: latest.NetIncome.Raw,
		Currency:  res.FinancialData.FinancialCurrency,
		Source:    p.Name(),
	}
	if !out.HasData() {
		return nil, fmt.Errorf("fetch financials %s: statement has no revenue or net income", ySymbol)
	}
	return out, nil
}

func (p *YahooProvider) chart(ctx context.Context, ySymbol string, params url.Values) (*yahooChartResponse, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(ySymbol), params.Encode())
	body, err := p.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var chart yahooChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart returned no result")
	}
	return &chart, nil
}

func (p *YahooProvider) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return fetch(ctx, p.client, "yahoo", endpoint, fetchOptions{accept: "application/json"})
}

// inRange compares ISO dates lexically against the calendar days of from and to.
func inRange(date string, from, to time.Time) bool {
	if !from.IsZero() && date < from.Format(domain.DateLayout) {
		return false
	}
	if !to.IsZero() && date > to.Format(domain.DateLayout) {
		return false
	}
	return true
}

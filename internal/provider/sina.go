package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quote-desk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	sinaQuoteBaseURL = "https://hq.sinajs.cn"
	sinaKlineBaseURL = "https://money.finance.sina.com.cn"
	sinaReferer      = "http://finance.sina.com.cn"

	// sinaMaxBars is the largest datalen the kline endpoint honours.
	sinaMaxBars = 1023
)

// SinaProvider reads mainland quotes and daily klines from Sina Finance.
type SinaProvider struct {
	client   *http.Client
	baseURL  string
	klineURL string
	tracer   trace.Tracer
	now      func() time.Time
}

func NewSinaProvider(tracer trace.Tracer, timeout time.Duration) *SinaProvider {
	return &SinaProvider{
		client:   &http.Client{Timeout: timeout},
		baseURL:  sinaQuoteBaseURL,
		klineURL: sinaKlineBaseURL,
		tracer:   tracer,
		now:      time.Now,
	}
}

func (p *SinaProvider) Name() string { return "sina" }

func (p *SinaProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "sina.fetch-quote")
	defer span.End()

	code := domain.ExchangeCode(symbol)
	span.SetAttributes(attribute.String("symbol", code))

	body, err := fetch(ctx, p.client, "sina", fmt.Sprintf("%s/list=%s", p.baseURL, code), fetchOptions{
		referer: sinaReferer,
		gbk:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", code, err)
	}

	q, err := parseSinaQuote(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse quote %s: %w", code, err)
	}
	q.Symbol = symbol
	q.Source = p.Name()
	return q, nil
}

// parseSinaQuote decodes var hq_str_sh600519="NAME,open,prevClose,price,...";
func parseSinaQuote(payload string) (*domain.Quote, error) {
	value, err := quotedValue(payload)
	if err != nil {
		return nil, err
	}
	fields := strings.Split(value, ",")
	if len(fields) < 4 {
		return nil, fmt.Errorf("short payload: %d fields", len(fields))
	}

	price, ok := parseNumber(fields[3])
	if !ok || !validPrice(price) {
		return nil, fmt.Errorf("invalid price %q", fields[3])
	}
	prev, _ := parseNumber(fields[2])

	return &domain.Quote{
		Name:      strings.TrimSpace(fields[0]),
		Price:     price,
		ChangePct: changePct(price, prev),
		Currency:  "CNY",
	}, nil
}

// FetchHistory reads daily klines and keeps the bars between from and to.
func (p *SinaProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*domain.HistorySeries, error) {
	ctx, span := p.tracer.Start(ctx, "sina.fetch-history")
	defer span.End()

	code := domain.ExchangeCode(symbol)
	span.SetAttributes(attribute.String("symbol", code))

	// The endpoint returns the most recent N bars, so size N to reach back to from.
	bars := int(p.now().Sub(from).Hours()/24) + 10
	if bars < 30 {
		bars = 30
	}
	if bars > sinaMaxBars {
		bars = sinaMaxBars
	}

	endpoint := fmt.Sprintf(
		"%s/quotes_service/api/json_v2.php/CN_MarketData.getKLineData?symbol=%s&scale=240&ma=no&datalen=%d",
		p.klineURL, code, bars,
	)
	body, err := fetch(ctx, p.client, "sina", endpoint, fetchOptions{referer: sinaReferer, gbk: true})
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", code, err)
	}

	var rows []struct {
		Day   string    `json:"day"`
		Close flexFloat `json:"close"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", code, err)
	}

	series := make([]domain.HistoryPoint, 0, len(rows))
	for _, row := range rows {
		date := row.Day
		if len(date) > len(domain.DateLayout) {
			date = date[:len(domain.DateLayout)]
		}
		if !validPrice(float64(row.Close)) || !inRange(date, from, to) {
			continue
		}
		series = append(series, domain.HistoryPoint{Date: date, Close: float64(row.Close)})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("fetch history %s: empty series", code)
	}

	return &domain.HistorySeries{Symbol: symbol, Series: series, Source: p.Name()}, nil
}

package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quote-desk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	tencentBaseURL = "https://qt.gtimg.cn"
	tencentReferer = "https://stockapp.finance.qq.com/"
)

// Positions in the "~" separated Tencent quote payload.
const (
	tencentFieldName      = 1
	tencentFieldPrice     = 3
	tencentFieldPrevClose = 4
	tencentFieldChangePct = 32
)

// TencentProvider reads mainland quotes from the gtimg quote endpoint.
type TencentProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewTencentProvider(tracer trace.Tracer, timeout time.Duration) *TencentProvider {
	return &TencentProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: tencentBaseURL,
		tracer:  tracer,
	}
}

func (p *TencentProvider) Name() string { return "tencent" }

func (p *TencentProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "tencent.fetch-quote")
	defer span.End()

	code := domain.ExchangeCode(symbol)
	span.SetAttributes(attribute.String("symbol", code))

	body, err := fetch(ctx, p.client, "tencent", fmt.Sprintf("%s/q=%s", p.baseURL, code), fetchOptions{
		referer: tencentReferer,
		gbk:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", code, err)
	}

	q, err := parseTencentQuote(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse quote %s: %w", code, err)
	}
	q.Symbol = symbol
	q.Source = p.Name()
	return q, nil
}

// parseTencentQuote decodes a payload such as v_sh600519="1~NAME~600519~1700.00~1690.00~...";
func parseTencentQuote(payload string) (*domain.Quote, error) {
	value, err := quotedValue(payload)
	if err != nil {
		return nil, err
	}
	fields := strings.Split(value, "~")
	if len(fields) <= tencentFieldPrevClose {
		return nil, fmt.Errorf("short payload: %d fields", len(fields))
	}

	price, ok := parseNumber(fields[tencentFieldPrice])
	if !ok || !validPrice(price) {
		return nil, fmt.Errorf("invalid price %q", fields[tencentFieldPrice])
	}
	prev, _ := parseNumber(fields[tencentFieldPrevClose])

	pct := changePct(price, prev)
	if len(fields) > tencentFieldChangePct {
		if v, ok := parseNumber(fields[tencentFieldChangePct]); ok {
			pct = v
		}
	}

	return &domain.Quote{
		Name:      strings.TrimSpace(fields[tencentFieldName]),
		Price:     price,
		ChangePct: pct,
		Currency:  "CNY",
	}, nil
}

// quotedValue returns the text between the first pair of double quotes.
func quotedValue(payload string) (string, error) {
	start := strings.IndexByte(payload, '"')
	if start < 0 {
		return "", fmt.Errorf("no quoted value in payload")
	}
	end := strings.IndexByte(payload[start+1:], '"')
	if end < 0 {
		return "", fmt.Errorf("unterminated quoted value")
	}
	value := strings.TrimSpace(payload[start+1 : start+1+end])
	if value == "" {
		return "", fmt.Errorf("empty payload")
	}
	return value, nil
}

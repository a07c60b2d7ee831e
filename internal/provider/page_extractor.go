package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"quote-desk/internal/domain"
	"quote-desk/internal/llm"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxPageRunes bounds the page text handed to the model.
const maxPageRunes = 12000

const extractorSystemPrompt = "You extract market data from web page text. " +
	"Answer with a single JSON value and nothing else. Use null for anything the page does not state."

var whitespaceRx = regexp.MustCompile(`\s+`)

// Completer is the slice of the LLM client the extractor needs.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, system, user string) (domain.ChatReply, error)
}

// PageURLs chooses which public page to read for each kind of data.
type PageURLs struct {
	CNQuote          string
	ForeignQuote     string
	CNHistory        string
	ForeignHistory   string
	CNFinancials     string
	ForeignFinancial string
}

// DefaultPageURLs point at Sina pages for mainland codes and Yahoo pages otherwise.
// CN templates take the sh600519 form except history and financials, which take the bare code.
var DefaultPageURLs = PageURLs{
	CNQuote:          "https://finance.sina.com.cn/realstock/company/%s/nc.shtml",
	ForeignQuote:     "https://finance.yahoo.com/quote/%s/",
	CNHistory:        "https://vip.stock.finance.sina.com.cn/corp/go.php/vMS_MarketHistory/stockid/%s.phtml",
	ForeignHistory:   "https://finance.yahoo.com/quote/%s/history/",
	CNFinancials:     "https://vip.stock.finance.sina.com.cn/corp/go.php/vFD_FinanceSummary/stockid/%s.phtml",
	ForeignFinancial: "https://finance.yahoo.com/quote/%s/financials/",
}

// PageExtractor is the last-resort provider: it reads a public quote page and asks the
// LLM to pull structured values out of its text.
type PageExtractor struct {
	client *http.Client
	urls   PageURLs
	tracer trace.Tracer
	llm    Completer
}

func NewPageExtractor(tracer trace.Tracer, completer Completer, timeout time.Duration) *PageExtractor {
	return &PageExtractor{
		client: &http.Client{Timeout: timeout},
		urls:   DefaultPageURLs,
		tracer: tracer,
		llm:    completer,
	}
}

func (p *PageExtractor) Name() string { return "llm-html" }

func (p *PageExtractor) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "page-extractor.fetch-quote")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	pageURL := p.pageURL(symbol, p.urls.CNQuote, p.urls.ForeignQuote, false)
	var out struct {
		Name      string   `json:"name"`
		Price     *float64 `json:"price"`
		ChangePct *float64 `json:"changePct"`
		Currency  string   `json:"currency"`
	}
	prompt := `Return {"name": string, "price": number, "changePct": number, "currency": string} ` +
		"for the latest traded price of " + symbol + "."
	if err := p.extract(ctx, pageURL, prompt, &out); err != nil {
		return nil, fmt.Errorf("extract quote %s: %w", symbol, err)
	}
	if out.Price == nil || !validPrice(*out.Price) {
		return nil, fmt.Errorf("extract quote %s: no usable price", symbol)
	}

	q := &domain.Quote{
		Symbol:   symbol,
		Name:     out.Name,
		Price:    *out.Price,
		Currency: out.Currency,
		Source:   p.Name(),
	}
	if out.ChangePct != nil {
		q.ChangePct = *out.ChangePct
	}
	if q.Currency == "" && domain.IsCNSymbol(symbol) {
		q.Currency = "CNY"
	}
	return q, nil
}

func (p *PageExtractor) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*domain.HistorySeries, error) {
	ctx, span := p.tracer.Start(ctx, "page-extractor.fetch-history")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	pageURL := p.pageURL(symbol, p.urls.CNHistory, p.urls.ForeignHistory, true)
	var out struct {
		Series []struct {
			Date  string    `json:"date"`
			Close flexFloat `json:"close"`
		} `json:"series"`
	}
	prompt := `Return {"series": [{"date": "YYYY-MM-DD", "close": number}]} with every daily close ` +
		"listed for " + symbol + ", oldest first."
	if err := p.extract(ctx, pageURL, prompt, &out); err != nil {
		return nil, fmt.Errorf("extract history %s: %w", symbol, err)
	}

	series := make([]domain.HistoryPoint, 0, len(out.Series))
	for _, pt := range out.Series {
		if _, err := time.Parse(domain.DateLayout, pt.Date); err != nil {
			continue
		}
		if !validPrice(float64(pt.Close)) || !inRange(pt.Date, from, to) {
			continue
		}
		series = append(series, domain.HistoryPoint{Date: pt.Date, Close: float64(pt.Close)})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("extract history %s: empty series", symbol)
	}
	sortSeries(series)
	return &domain.HistorySeries{Symbol: symbol, Series: series, Source: p.Name()}, nil
}

func (p *PageExtractor) FetchFinancials(ctx context.Context, symbol string) (*domain.Financials, error) {
	ctx, span := p.tracer.Start(ctx, "page-extractor.fetch-financials")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	pageURL := p.pageURL(symbol, p.urls.CNFinancials, p.urls.ForeignFinancial, true)
	var out struct {
		Revenue   *float64 `json:"revenue"`
		NetIncome *float64 `json:"netIncome"`
		Currency  string   `json:"currency"`
	}
	prompt := `Return {"revenue": number, "netIncome": number, "currency": string} ` +
		"for the most recent full fiscal year of " + symbol + ", in absolute units."
	if err := p.extract(ctx, pageURL, prompt, &out); err != nil {
		return nil, fmt.Errorf("extract financials %s: %w", symbol, err)
	}

	fin := &domain.Financials{Revenue: out.Revenue, NetIncome: out.NetIncome, Currency: out.Currency, Source: p.Name()}
	if !fin.HasData() {
		return nil, fmt.Errorf("extract financials %s: no figures found", symbol)
	}
	return fin, nil
}

func (p *PageExtractor) pageURL(symbol, cnTemplate, foreignTemplate string, bareCode bool) string {
	if market, code, ok := domain.CNMarket(symbol); ok {
		if bareCode {
			return fmt.Sprintf(cnTemplate, code)
		}
		return fmt.Sprintf(cnTemplate, market+code)
	}
	return fmt.Sprintf(foreignTemplate, domain.YahooSymbol(symbol))
}

func (p *PageExtractor) extract(ctx context.Context, pageURL, instruction string, v any) error {
	if p.llm == nil || !p.llm.Configured() {
		return llm.ErrNotConfigured
	}

	body, err := fetch(ctx, p.client, "page", pageURL, fetchOptions{accept: "text/html"})
	if err != nil {
		return err
	}
	text, err := pageText(body)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("page %s has no text", pageURL)
	}

	reply, err := p.llm.Complete(ctx, extractorSystemPrompt, instruction+"\n\nPage text:\n"+text)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(reply.Reply, v)
}

// pageText strips scripts and markup and collapses whitespace.
func pageText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script,style,noscript,svg,iframe").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	text = strings.TrimSpace(whitespaceRx.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) > maxPageRunes {
		text = string(runes[:maxPageRunes])
	}
	return text, nil
}

func sortSeries(series []domain.HistoryPoint) {
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
}

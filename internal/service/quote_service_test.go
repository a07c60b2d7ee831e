package service

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"quote-desk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteFixture struct {
	yahoo, tencent, sina, page *stubSource
	redis                      *fakeRedis
	svc                        *QuoteService
}

func newQuoteFixture() *quoteFixture {
	f := &quoteFixture{
		yahoo:   &stubSource{name: "yahoo"},
		tencent: &stubSource{name: "tencent"},
		sina:    &stubSource{name: "sina"},
		page:    &stubSource{name: "llm-html", err: errUpstream},
		redis:   newFakeRedis(),
	}
	f.svc = NewQuoteService(testTracer, StandardChains(f.yahoo, f.tencent, f.sina, f.page), f.redis, time.Second)
	return f
}

func TestGetQuoteCNTencentWins(t *testing.T) {
	f := newQuoteFixture()
	f.tencent.quote = priced(1700)
	f.sina.quote = priced(1)
	f.yahoo.quote = priced(2)

	q, err := f.svc.GetQuote(context.Background(), "600519")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "tencent", q.Source)
	assert.Equal(t, 1700.0, q.Price)

	sinaCalls, _, _ := f.sina.calls()
	yahooCalls, _, _ := f.yahoo.calls()
	assert.Zero(t, sinaCalls, "sina must not be called when tencent succeeds")
	assert.Zero(t, yahooCalls, "yahoo must not be called when tencent succeeds")
}

func TestGetQuoteCNFallsThroughToYahoo(t *testing.T) {
	f := newQuoteFixture()
	f.tencent.err = errUpstream
	f.sina.quote = priced(math.NaN())
	f.yahoo.quote = priced(12.3)

	q, err := f.svc.GetQuote(context.Background(), "sz000001")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "yahoo", q.Source)

	pageCalls, _, _ := f.page.calls()
	assert.Zero(t, pageCalls)
}

func TestGetQuoteForeignSkipsDomesticFeeds(t *testing.T) {
	f := newQuoteFixture()
	f.tencent.quote = priced(1)
	f.yahoo.quote = priced(190)

	q, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", q.Source)

	tencentCalls, _, _ := f.tencent.calls()
	assert.Zero(t, tencentCalls)
}

func TestGetQuoteAllFailReturnsNil(t *testing.T) {
	f := newQuoteFixture()
	f.tencent.err = errUpstream
	f.sina.quote = priced(0)
	f.yahoo.quote = priced(math.Inf(1))

	q, err := f.svc.GetQuote(context.Background(), "600519")
	assert.NoError(t, err)
	assert.Nil(t, q)

	for _, s := range []*stubSource{f.tencent, f.sina, f.yahoo, f.page} {
		calls, _, _ := s.calls()
		assert.Equal(t, 1, calls, s.name)
	}
	assert.Empty(t, f.redis.data, "quotes are not cached")
}

func TestGetQuoteProviderTimeout(t *testing.T) {
	f := newQuoteFixture()
	f.tencent.quote = priced(10)
	f.tencent.delay = time.Second
	f.sina.quote = priced(11)
	f.svc.timeout = 20 * time.Millisecond

	q, err := f.svc.GetQuote(context.Background(), "600519")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "sina", q.Source)
}

func TestGetQuoteBlankSymbol(t *testing.T) {
	f := newQuoteFixture()
	_, err := f.svc.GetQuote(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestGetHistoryCNOrderAndCache(t *testing.T) {
	f := newQuoteFixture()
	f.yahoo.err = errUpstream
	f.sina.history = map[string]*domain.HistorySeries{
		"600519": series("600519", pt("2024-01-02", 10), pt("2024-01-03", 11)),
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	h, err := f.svc.GetHistory(context.Background(), "600519", from, to)
	require.NoError(t, err)
	assert.Len(t, h.Series, 2)

	key := "history:600519:2024-01-01:2024-01-31"
	require.Contains(t, f.redis.data, key)
	assert.Equal(t, historyCacheTTL, f.redis.ttls[key])

	_, err = f.svc.GetHistory(context.Background(), "600519", from, to)
	require.NoError(t, err)
	_, sinaHistory, _ := f.sina.calls()
	assert.Equal(t, 1, sinaHistory, "second call must be served from cache")
}

func TestGetHistoryAllFail(t *testing.T) {
	f := newQuoteFixture()
	f.yahoo.err = errUpstream
	_, err := f.svc.GetHistory(context.Background(), "MSFT", time.Now().AddDate(-1, 0, 0), time.Now())
	assert.ErrorIs(t, err, ErrAllProvidersFailed)

	_, sinaHistory, _ := f.sina.calls()
	assert.Zero(t, sinaHistory, "foreign history never asks sina")
}

func TestGetFinancialsFallsBackAndCaches(t *testing.T) {
	f := newQuoteFixture()
	f.yahoo.financials = &domain.Financials{}
	f.page.err = nil
	f.page.financials = &domain.Financials{Revenue: f64(100), Currency: "CNY"}

	fin, err := f.svc.GetFinancials(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, 100.0, *fin.Revenue)
	assert.Nil(t, fin.NetIncome)

	var cached domain.Financials
	require.NoError(t, json.Unmarshal(f.redis.data["financials:600519"], &cached))
	assert.Equal(t, "CNY", cached.Currency)
	assert.Equal(t, financialsCacheTTL, f.redis.ttls["financials:600519"])
}

func TestQuoteServiceWithoutRedis(t *testing.T) {
	yahoo := &stubSource{name: "yahoo", financials: &domain.Financials{NetIncome: f64(-5)}}
	svc := NewQuoteService(testTracer, StandardChains(yahoo, yahoo, yahoo, yahoo), nil, 0)
	assert.Equal(t, DefaultProviderTimeout, svc.timeout)

	fin, err := svc.GetFinancials(context.Background(), "IBM")
	require.NoError(t, err)
	assert.Equal(t, -5.0, *fin.NetIncome)
}

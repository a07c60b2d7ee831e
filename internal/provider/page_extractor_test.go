package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"quote-desk/internal/domain"
	"quote-desk/internal/llm"
)

type stubCompleter struct {
	configured bool
	reply      string
	err        error
	lastUser   string
}

func (s *stubCompleter) Configured() bool { return s.configured }

func (s *stubCompleter) Complete(_ context.Context, _, user string) (domain.ChatReply, error) {
	s.lastUser = user
	if s.err != nil {
		return domain.ChatReply{}, s.err
	}
	return domain.ChatReply{Reply: s.reply, Model: "stub"}, nil
}

const quotePage = `<html><head><style>.x{color:red}</style><script>var secret = 1;</script></head>
<body><h1>Kweichow Moutai</h1><p>Last   price 1700.5</p></body></html>`

func newTestExtractor(c *stubCompleter, check func(req *http.Request)) *PageExtractor {
	p := NewPageExtractor(testTracer(), c, time.Second)
	p.client = stubClient(func(req *http.Request) (*http.Response, error) {
		if check != nil {
			check(req)
		}
		return respond(http.StatusOK, quotePage), nil
	})
	return p
}

func TestPageExtractorFetchQuote(t *testing.T) {
	c := &stubCompleter{configured: true, reply: "```json\n{\"name\":\"Kweichow Moutai\",\"price\":1700.5,\"changePct\":0.4,\"currency\":null}\n```"}
	p := newTestExtractor(c, func(req *http.Request) {
		if !strings.Contains(req.URL.Path, "/realstock/company/sh600519/") {
			t.Fatalf("unexpected page: %s", req.URL.String())
		}
	})

	q, err := p.FetchQuote(context.Background(), "600519")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Price != 1700.5 || q.ChangePct != 0.4 || q.Currency != "CNY" || q.Source != "llm-html" {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if strings.Contains(c.lastUser, "secret") || strings.Contains(c.lastUser, "color:red") {
		t.Fatal("expected scripts and styles stripped from page text")
	}
	if !strings.Contains(c.lastUser, "Last price 1700.5") {
		t.Fatalf("expected collapsed page text in prompt, got %q", c.lastUser)
	}
}

func TestPageExtractorNoPrice(t *testing.T) {
	c := &stubCompleter{configured: true, reply: `{"name":"X","price":null}`}
	p := newTestExtractor(c, nil)
	if _, err := p.FetchQuote(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error when model finds no price")
	}
}

func TestPageExtractorNotConfigured(t *testing.T) {
	p := newTestExtractor(&stubCompleter{}, func(req *http.Request) {
		t.Fatal("page must not be fetched without an LLM")
	})
	if _, err := p.FetchQuote(context.Background(), "AAPL"); !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestPageExtractorFetchHistorySortsAndFilters(t *testing.T) {
	c := &stubCompleter{configured: true, reply: `{"series":[
{"date":"2024-01-03","close":"12.5"},{"date":"2024-01-02","close":12},{"date":"bad","close":1},{"date":"2023-06-01","close":9}]}`}
	p := newTestExtractor(c, func(req *http.Request) {
		if !strings.Contains(req.URL.Path, "/quote/AAPL/history/") {
			t.Fatalf("unexpected page: %s", req.URL.String())
		}
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h, err := p.FetchHistory(context.Background(), "aapl", from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.Series) != 2 || h.Series[0].Date != "2024-01-02" || h.Series[1].Close != 12.5 {
		t.Fatalf("unexpected series: %+v", h.Series)
	}
}

func TestPageExtractorFetchFinancials(t *testing.T) {
	c := &stubCompleter{configured: true, reply: `{"revenue": 1.5e11, "netIncome": null, "currency": "CNY"}`}
	p := newTestExtractor(c, func(req *http.Request) {
		if !strings.Contains(req.URL.Path, "/stockid/600519.phtml") {
			t.Fatalf("unexpected page: %s", req.URL.String())
		}
	})

	f, err := p.FetchFinancials(context.Background(), "SH600519")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Revenue == nil || *f.Revenue != 1.5e11 || f.NetIncome != nil || f.Currency != "CNY" {
		t.Fatalf("unexpected financials: %+v", f)
	}

	c.reply = `{"revenue": null, "netIncome": null}`
	if _, err := p.FetchFinancials(context.Background(), "SH600519"); err == nil {
		t.Fatal("expected error when no figures are extracted")
	}
}

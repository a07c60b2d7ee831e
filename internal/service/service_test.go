package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"quote-desk/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

var errUpstream = errors.New("upstream down")

// stubSource implements every provider interface and counts calls per operation.
type stubSource struct {
	name string

	mu         sync.Mutex
	quote      *domain.Quote
	history    map[string]*domain.HistorySeries
	financials *domain.Financials
	err        error
	delay      time.Duration

	quoteCalls      int
	historyCalls    int
	financialsCalls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	s.mu.Lock()
	s.quoteCalls++
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.quote == nil {
		return nil, nil
	}
	q := *s.quote
	q.Symbol = symbol
	q.Source = s.name
	return &q, nil
}

func (s *stubSource) FetchHistory(ctx context.Context, symbol string, _, _ time.Time) (*domain.HistorySeries, error) {
	s.mu.Lock()
	s.historyCalls++
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	h, ok := s.history[domain.NormalizeSymbol(symbol)]
	if !ok {
		return nil, errors.New("no history")
	}
	return h, nil
}

func (s *stubSource) FetchFinancials(ctx context.Context, _ string) (*domain.Financials, error) {
	s.mu.Lock()
	s.financialsCalls++
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.financials, nil
}

func (s *stubSource) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}

func (s *stubSource) calls() (quote, history, financials int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quoteCalls, s.historyCalls, s.financialsCalls
}

func priced(price float64) *domain.Quote {
	return &domain.Quote{Name: "Test", Price: price, Currency: "CNY"}
}

func series(symbol string, points ...domain.HistoryPoint) *domain.HistorySeries {
	return &domain.HistorySeries{Symbol: symbol, Series: points}
}

func pt(date string, close float64) domain.HistoryPoint {
	return domain.HistoryPoint{Date: date, Close: close}
}

func f64(v float64) *float64 { return &v }

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

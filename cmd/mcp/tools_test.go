package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"quote-desk/internal/domain"
	"quote-desk/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTools struct {
	quote *domain.Quote
	req   domain.BacktestRequest
}

func (s *stubTools) GetQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	return s.quote, nil
}

func (s *stubTools) Analyze(_ context.Context, symbol string) *domain.AnalysisResult {
	return &domain.AnalysisResult{Code: symbol, Analysis: "flat", Model: service.TemplateModel}
}

func (s *stubTools) Run(_ context.Context, req domain.BacktestRequest) (*domain.BacktestResult, error) {
	s.req = req
	if len(req.Symbols) == 0 {
		return nil, errors.New("invalid backtest request: at least one symbol is required")
	}
	return &domain.BacktestResult{Symbols: req.Symbols, InitialCapital: 10000, NAV: []domain.NAVPoint{{Date: "2024-01-02", Value: 10000}}}, nil
}

func connect(t *testing.T, stub *stubTools) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := newServer("test", stub, stub, stub)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestListTools(t *testing.T) {
	cs := connect(t, &stubTools{})
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	assert.True(t, names["get_quote"] && names["analyze_symbol"] && names["run_backtest"], "tools: %v", names)
}

func TestGetQuoteTool(t *testing.T) {
	stub := &stubTools{quote: &domain.Quote{Symbol: "AAPL", Price: 190.5, Currency: "USD"}}
	cs := connect(t, stub)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_quote", Arguments: map[string]any{"symbol": "AAPL"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	var q domain.Quote
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &q))
	assert.Equal(t, 190.5, q.Price)

	stub.quote = nil
	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_quote", Arguments: map[string]any{"symbol": "ZZZ"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "no quote available for ZZZ")
}

func TestAnalyzeAndBacktestTools(t *testing.T) {
	stub := &stubTools{}
	cs := connect(t, stub)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "analyze_symbol", Arguments: map[string]any{"symbol": "600519"}})
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"model":"template"`)

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "run_backtest", Arguments: map[string]any{
		"symbols": []string{"AAPL", "MSFT"}, "from": "2024-01-01", "initialCapital": 5000,
	}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, []string{"AAPL", "MSFT"}, stub.req.Symbols)
	assert.Equal(t, 5000.0, stub.req.InitialCapital)

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "run_backtest", Arguments: map[string]any{"symbols": []string{}}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

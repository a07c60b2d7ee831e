package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quote-desk/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QuoteGetter interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, symbol string) *domain.AnalysisResult
}

type Backtester interface {
	Run(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestResult, error)
}

type symbolInput struct {
	Symbol string `json:"symbol" jsonschema:"stock or fund code, e.g. 600519, sh600519 or AAPL"`
}

type backtestInput struct {
	Symbols        []string `json:"symbols" jsonschema:"codes held in equal weight"`
	From           string   `json:"from,omitempty" jsonschema:"start date YYYY-MM-DD, defaults to one year before to"`
	To             string   `json:"to,omitempty" jsonschema:"end date YYYY-MM-DD, defaults to today"`
	InitialCapital float64  `json:"initialCapital,omitempty" jsonschema:"starting capital, defaults to 10000"`
}

// newServer registers the quote, analysis and backtest tools.
func newServer(version string, quotes QuoteGetter, analyzer Analyzer, backtester Backtester) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "quote-desk", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_quote",
		Description: "Real-time quote for a stock or fund, trying several market data sources in order",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolInput) (*mcp.CallToolResult, any, error) {
		symbol := strings.TrimSpace(in.Symbol)
		if symbol == "" {
			return toolError("symbol is required"), nil, nil
		}
		q, err := quotes.GetQuote(ctx, symbol)
		if err != nil || q == nil {
			return toolError("no quote available for " + symbol), nil, nil
		}
		return jsonResult(q)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_symbol",
		Description: "Quote, one-year trend, financials, topic news and a written analysis for a symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolInput) (*mcp.CallToolResult, any, error) {
		symbol := strings.TrimSpace(in.Symbol)
		if symbol == "" {
			return toolError("symbol is required"), nil, nil
		}
		return jsonResult(analyzer.Analyze(ctx, symbol))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_backtest",
		Description: "Equal-weight buy-and-hold backtest with NAV curve, total return, volatility and max drawdown",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in backtestInput) (*mcp.CallToolResult, any, error) {
		result, err := backtester.Run(ctx, domain.BacktestRequest{
			Symbols:        in.Symbols,
			From:           in.From,
			To:             in.To,
			InitialCapital: in.InitialCapital,
		})
		if err != nil {
			return toolError(err.Error()), nil, nil
		}
		return jsonResult(result)
	})

	return server
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quote-desk/internal/domain"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const (
	commandTimeout  = 60 * time.Second
	maxNewsLines    = 8
	maxMessageRunes = 4000
)

type QuoteGetter interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, symbol string) *domain.AnalysisResult
}

type NewsFetcher interface {
	FetchByTopic(ctx context.Context, symbol, name string) ([]domain.NewsItem, map[domain.NewsTopic][]domain.NewsItem)
}

// Bot answers /quote, /analyze and /news with the same services the HTTP API uses.
type Bot struct {
	quotes   QuoteGetter
	analyzer Analyzer
	news     NewsFetcher
}

func New(quotes QuoteGetter, analyzer Analyzer, news NewsFetcher) *Bot {
	return &Bot{quotes: quotes, analyzer: analyzer, news: news}
}

// Start connects to Telegram and polls in the background. An empty token skips startup
// and returns a nil bot.
func (b *Bot) Start(token string) (*tele.Bot, error) {
	if strings.TrimSpace(token) == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	tb.Handle("/ping", func(c tele.Context) error { return c.Send("pong") })
	tb.Handle("/quote", b.reply(b.quoteReply))
	tb.Handle("/analyze", b.reply(b.analyzeReply))
	tb.Handle("/news", b.reply(b.newsReply))

	log.Info().Msg("telegram bot started")
	go tb.Start()
	return tb, nil
}

func (b *Bot) reply(fn func(ctx context.Context, args []string) string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(truncate(fn(ctx, c.Args())))
	}
}

func (b *Bot) quoteReply(ctx context.Context, args []string) string {
	symbol, ok := symbolArg(args)
	if !ok {
		return "Usage: /quote 600519 or /quote AAPL"
	}
	q, err := b.quotes.GetQuote(ctx, symbol)
	if err != nil || q == nil {
		return fmt.Sprintf("No quote available for %s", symbol)
	}
	return formatQuote(q)
}

func (b *Bot) analyzeReply(ctx context.Context, args []string) string {
	symbol, ok := symbolArg(args)
	if !ok {
		return "Usage: /analyze 600519 or /analyze AAPL"
	}
	r := b.analyzer.Analyze(ctx, symbol)
	if r == nil {
		return fmt.Sprintf("No analysis available for %s", symbol)
	}

	var sb strings.Builder
	if r.Quote != nil {
		sb.WriteString(formatQuote(r.Quote))
		sb.WriteString("\n")
	}
	if r.Trend != nil {
		fmt.Fprintf(&sb, "20d: MA %.2f, return %+.2f%%\n", r.Trend.MA20, r.Trend.Ret20*100)
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(r.Analysis)
	return sb.String()
}

func (b *Bot) newsReply(ctx context.Context, args []string) string {
	symbol, ok := symbolArg(args)
	if !ok {
		return "Usage: /news 600519 or /news AAPL"
	}
	items, _ := b.news.FetchByTopic(ctx, symbol, "")
	if len(items) == 0 {
		return fmt.Sprintf("No news found for %s", symbol)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "News for %s\n", symbol)
	for i, n := range items {
		if i == maxNewsLines {
			break
		}
		fmt.Fprintf(&sb, "\n- %s", n.Title)
		if n.Source != "" {
			fmt.Fprintf(&sb, " (%s)", n.Source)
		}
		if n.Link != "" {
			fmt.Fprintf(&sb, "\n  %s", n.Link)
		}
	}
	return sb.String()
}

func formatQuote(q *domain.Quote) string {
	name := q.Name
	if name == "" {
		name = q.Symbol
	}
	msg := fmt.Sprintf("%s (%s)\nPrice: %.2f %s\nChange: %+.2f%%", name, q.Symbol, q.Price, q.Currency, q.ChangePct)
	if q.MarketState != "" {
		msg += "\nMarket: " + q.MarketState
	}
	return msg
}

func symbolArg(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s := strings.TrimSpace(args[0])
	return s, s != ""
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageRunes {
		return s
	}
	return string(r[:maxMessageRunes-1]) + "…"
}

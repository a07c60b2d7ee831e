package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quote-desk/internal/domain"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const googleNewsBaseURL = "https://news.google.com"

// NewsProvider searches Google News through its public RSS endpoint.
type NewsProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	parser  *gofeed.Parser
}

func NewNewsProvider(tracer trace.Tracer, timeout time.Duration) *NewsProvider {
	return &NewsProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: googleNewsBaseURL,
		tracer:  tracer,
		parser:  gofeed.NewParser(),
	}
}

// Search returns up to limit items for query. cn selects the Simplified Chinese edition.
func (p *NewsProvider) Search(ctx context.Context, query string, cn bool, limit int) ([]domain.NewsItem, error) {
	ctx, span := p.tracer.Start(ctx, "news.search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("news query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	span.SetAttributes(attribute.String("query", query), attribute.Bool("cn", cn))

	params := url.Values{"q": {query}}
	if cn {
		params.Set("hl", "zh-CN")
		params.Set("gl", "CN")
		params.Set("ceid", "CN:zh-Hans")
	} else {
		params.Set("hl", "en-US")
		params.Set("gl", "US")
		params.Set("ceid", "US:en")
	}

	body, err := fetch(ctx, p.client, "google news", p.baseURL+"/rss/search?"+params.Encode(), fetchOptions{
		accept: "application/rss+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, fmt.Errorf("search news %q: %w", query, err)
	}

	feed, err := p.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode news feed: %w", err)
	}

	items := make([]domain.NewsItem, 0, min(limit, len(feed.Items)))
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		item := toNewsItem(entry)
		if item.Title == "" && item.Link == "" {
			continue
		}
		items = append(items, item)
	}
	span.SetAttributes(attribute.Int("items", len(items)))
	return items, nil
}

func toNewsItem(entry *gofeed.Item) domain.NewsItem {
	title := strings.TrimSpace(entry.Title)
	source := ""
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		source = strings.TrimSpace(entry.Authors[0].Name)
	}
	// Google News titles end with " - Publisher".
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		if source == "" {
			source = strings.TrimSpace(title[idx+3:])
		}
		title = strings.TrimSpace(title[:idx])
	}

	pubDate := strings.TrimSpace(entry.Published)
	if entry.PublishedParsed != nil {
		pubDate = entry.PublishedParsed.UTC().Format(time.RFC3339)
	}

	return domain.NewsItem{
		Title:   title,
		Link:    strings.TrimSpace(entry.Link),
		PubDate: pubDate,
		Source:  source,
	}
}

package service

import (
	"context"
	"strings"

	"quote-desk/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultNewsPerTopic = 8

type NewsSearcher interface {
	Search(ctx context.Context, query string, cn bool, limit int) ([]domain.NewsItem, error)
}

// TopicSuffixes are appended to the base query for every topic but TopicBase.
type TopicSuffixes struct {
	CN      map[domain.NewsTopic]string `yaml:"cn"`
	Foreign map[domain.NewsTopic]string `yaml:"foreign"`
}

func DefaultTopicSuffixes() TopicSuffixes {
	return TopicSuffixes{
		CN: map[domain.NewsTopic]string{
			domain.TopicPolicy:   "政策",
			domain.TopicIndustry: "行业",
			domain.TopicFinance:  "财报",
		},
		Foreign: map[domain.NewsTopic]string{
			domain.TopicPolicy:   "policy",
			domain.TopicIndustry: "industry",
			domain.TopicFinance:  "earnings",
		},
	}
}

type NewsService struct {
	tracer   trace.Tracer
	searcher NewsSearcher
	perTopic int
	suffixes TopicSuffixes
}

func NewNewsService(tracer trace.Tracer, searcher NewsSearcher, perTopic int, suffixes TopicSuffixes) *NewsService {
	if perTopic <= 0 {
		perTopic = defaultNewsPerTopic
	}
	merged := DefaultTopicSuffixes()
	overlaySuffixes(merged.CN, suffixes.CN)
	overlaySuffixes(merged.Foreign, suffixes.Foreign)
	return &NewsService{tracer: tracer, searcher: searcher, perTopic: perTopic, suffixes: merged}
}

func overlaySuffixes(dst, src map[domain.NewsTopic]string) {
	for topic, suffix := range src {
		if suffix = strings.TrimSpace(suffix); suffix != "" {
			dst[topic] = suffix
		}
	}
}

// TopicQueries returns the search query for each topic. The base query is the company
// name when known, otherwise the symbol.
func (s *NewsService) TopicQueries(symbol, name string) map[domain.NewsTopic]string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = strings.TrimSpace(symbol)
	}
	suffixes := s.suffixes.Foreign
	if domain.IsCNSymbol(symbol) {
		suffixes = s.suffixes.CN
	}

	out := make(map[domain.NewsTopic]string, len(domain.NewsTopics))
	for _, topic := range domain.NewsTopics {
		if suffix := suffixes[topic]; topic != domain.TopicBase && suffix != "" {
			out[topic] = base + " " + suffix
			continue
		}
		out[topic] = base
	}
	return out
}

// FetchByTopic runs the topic queries concurrently. A failed topic yields no items; it
// never fails the whole call. The merged list keeps topic order and drops duplicates.
func (s *NewsService) FetchByTopic(ctx context.Context, symbol, name string) ([]domain.NewsItem, map[domain.NewsTopic][]domain.NewsItem) {
	ctx, span := s.tracer.Start(ctx, "news-service.fetch-by-topic")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	cn := domain.IsCNSymbol(symbol)
	queries := s.TopicQueries(symbol, name)
	results := make([][]domain.NewsItem, len(domain.NewsTopics))

	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range domain.NewsTopics {
		g.Go(func() error {
			items, err := s.searcher.Search(gctx, queries[topic], cn, s.perTopic)
			if err != nil {
				log.Warn().Err(err).Str("symbol", symbol).Str("topic", string(topic)).Msg("news topic fetch failed")
				return nil
			}
			for j := range items {
				items[j].Topic = topic
			}
			results[i] = UniqNews(items)
			return nil
		})
	}
	_ = g.Wait()

	byTopic := make(map[domain.NewsTopic][]domain.NewsItem, len(domain.NewsTopics))
	var merged []domain.NewsItem
	for i, topic := range domain.NewsTopics {
		items := results[i]
		if items == nil {
			items = []domain.NewsItem{}
		}
		byTopic[topic] = items
		merged = append(merged, items...)
	}
	merged = UniqNews(merged)
	span.SetAttributes(attribute.Int("items", len(merged)))
	return merged, byTopic
}

// UniqNews keeps the first item for each key (link, else title). Items with neither are dropped.
func UniqNews(items []domain.NewsItem) []domain.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item.Key())
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

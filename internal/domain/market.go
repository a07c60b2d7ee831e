package domain

import "time"

// Quote is a normalized real-time quote from whichever upstream answered first.
type Quote struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ChangePct   float64 `json:"changePct"`
	Currency    string  `json:"currency"`
	MarketState string  `json:"marketState"`
	Source      string  `json:"source,omitempty"`
}

// HistoryPoint is a single daily close.
type HistoryPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// HistorySeries holds daily closes in ascending date order.
type HistorySeries struct {
	Symbol string         `json:"symbol"`
	Series []HistoryPoint `json:"series"`
	Source string         `json:"source,omitempty"`
}

func (h *HistorySeries) Closes() []float64 {
	if h == nil {
		return nil
	}
	out := make([]float64, len(h.Series))
	for i, p := range h.Series {
		out[i] = p.Close
	}
	return out
}

// Financials carries headline fundamentals. Nil fields mean the upstream had no value.
type Financials struct {
	Revenue   *float64 `json:"revenue"`
	NetIncome *float64 `json:"netIncome"`
	Currency  string   `json:"currency"`
	Source    string   `json:"source,omitempty"`
}

func (f *Financials) HasData() bool {
	return f != nil && (f.Revenue != nil || f.NetIncome != nil)
}

type NewsTopic string

const (
	TopicBase     NewsTopic = "base"
	TopicPolicy   NewsTopic = "policy"
	TopicIndustry NewsTopic = "industry"
	TopicFinance  NewsTopic = "finance"
)

// NewsTopics is the fixed order topics are queried and merged in.
var NewsTopics = []NewsTopic{TopicBase, TopicPolicy, TopicIndustry, TopicFinance}

type NewsItem struct {
	Title   string    `json:"title"`
	Link    string    `json:"link"`
	PubDate string    `json:"pubDate"`
	Source  string    `json:"source"`
	Topic   NewsTopic `json:"topic,omitempty"`
}

// Key identifies a news item for deduplication: the link, or the title when there is no link.
func (n NewsItem) Key() string {
	if n.Link != "" {
		return n.Link
	}
	return n.Title
}

// Trend is the 20-day trend window over daily closes.
type Trend struct {
	Last  float64 `json:"last"`
	MA20  float64 `json:"ma20"`
	Ret20 float64 `json:"ret20"`
}

type AnalysisResult struct {
	Code        string                   `json:"code"`
	Quote       *Quote                   `json:"quote"`
	News        []NewsItem               `json:"news"`
	Trend       *Trend                   `json:"trend"`
	Financials  *Financials              `json:"financials"`
	NewsByTopic map[NewsTopic][]NewsItem `json:"newsByTopic"`
	Analysis    string                   `json:"analysis"`
	Model       string                   `json:"model"`
}

// WatchlistEntry mirrors what the browser keeps in local storage.
type WatchlistEntry struct {
	Code       string  `json:"code"`
	EntryPrice float64 `json:"entryPrice"`
	EntryDate  string  `json:"entryDate"`
	Currency   string  `json:"currency"`
	Weight     float64 `json:"weight"`
}

type WatchlistRow struct {
	Entry     WatchlistEntry `json:"entry"`
	Quote     *Quote         `json:"quote"`
	ReturnPct *float64       `json:"returnPct"`
	Weight    float64        `json:"weight"`
}

type WatchlistSummary struct {
	Rows              []WatchlistRow `json:"rows"`
	WeightSum         float64        `json:"weightSum"`
	WeightedReturnPct *float64       `json:"weightedReturnPct"`
	Priced            int            `json:"priced"`
}

type NAVPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type BacktestRequest struct {
	Symbols        []string `json:"symbols"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	InitialCapital float64  `json:"initialCapital"`
}

type BacktestResult struct {
	ID             int64      `json:"id,omitempty"`
	Symbols        []string   `json:"symbols"`
	From           string     `json:"from"`
	To             string     `json:"to"`
	InitialCapital float64    `json:"initialCapital"`
	NAV            []NAVPoint `json:"nav"`
	TotalReturn    float64    `json:"totalReturn"`
	Volatility     float64    `json:"volatility"`
	MaxDrawdown    float64    `json:"maxDrawdown"`
	CreatedAt      time.Time  `json:"createdAt,omitempty"`
}

func (r *BacktestResult) Empty() bool {
	return r == nil || len(r.NAV) == 0
}

// ChatMessage is one turn of an OpenAI-style conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatReply struct {
	Reply    string `json:"reply"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

type IntelligenceSnapshot struct {
	Items     []NewsItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Stale     bool       `json:"stale"`
}

// DateLayout is the layout of every date string exchanged by the API.
const DateLayout = "2006-01-02"

package service

import (
	"fmt"
	"strings"

	"quote-desk/internal/domain"
)

const analysisSystemPrompt = `You are an equity research assistant. You summarize the data you are given for one listed security.

Rules:
- Only use the facts provided below. Never fabricate prices, figures or headlines.
- If a section is missing, say the data is unavailable rather than guessing.
- Cover: price action and the 20-day trend, fundamentals, and what the news flow suggests (policy, industry, earnings).
- Finish with the main risks to watch.
- Keep it under 300 words. Answer in the language of the company's home market.`

// AnalysisUnavailableMessage is returned in place of an analysis when the model call fails.
const AnalysisUnavailableMessage = "Sorry, the analysis service is temporarily unavailable. Please try again later."

// TemplateModel marks analyses produced without a language model.
const TemplateModel = "template"

const maxPromptHeadlines = 5

// BuildAnalysisPrompt renders the facts gathered for one symbol as the user message.
func BuildAnalysisPrompt(r *domain.AnalysisResult, rsi *float64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Security: %s\n", r.Code))

	sb.WriteString("\nQuote:\n")
	if q := r.Quote; q != nil {
		name := q.Name
		if name == "" {
			name = r.Code
		}
		sb.WriteString(fmt.Sprintf("  %s: %.2f %s (%+.2f%%)\n", name, q.Price, q.Currency, q.ChangePct))
	} else {
		sb.WriteString("  unavailable\n")
	}

	sb.WriteString("\nTrend:\n")
	if t := r.Trend; t != nil {
		sb.WriteString(fmt.Sprintf("  last close %.2f, 20-day average %.2f, 20-day return %+.2f%%\n",
			t.Last, t.MA20, t.Ret20*100))
	} else {
		sb.WriteString("  fewer than 20 daily closes available\n")
	}
	if rsi != nil {
		sb.WriteString(fmt.Sprintf("  RSI(14) %.1f\n", *rsi))
	}

	sb.WriteString("\nFinancials (latest fiscal year):\n")
	if f := r.Financials; f.HasData() {
		sb.WriteString(fmt.Sprintf("  revenue %s, net income %s %s\n",
			formatAmount(f.Revenue), formatAmount(f.NetIncome), f.Currency))
	} else {
		sb.WriteString("  unavailable\n")
	}

	for _, topic := range domain.NewsTopics {
		items := r.NewsByTopic[topic]
		sb.WriteString(fmt.Sprintf("\nNews (%s):\n", topic))
		if len(items) == 0 {
			sb.WriteString("  none\n")
			continue
		}
		for i, item := range items {
			if i >= maxPromptHeadlines {
				break
			}
			sb.WriteString("  - " + item.Title)
			if item.Source != "" {
				sb.WriteString(" (" + item.Source + ")")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// TemplateAnalysis summarizes the facts deterministically when no model is configured.
func TemplateAnalysis(r *domain.AnalysisResult) string {
	var parts []string

	if q := r.Quote; q != nil {
		name := r.Code
		if q.Name != "" {
			name = fmt.Sprintf("%s (%s)", q.Name, r.Code)
		}
		parts = append(parts, fmt.Sprintf("%s last traded at %.2f %s, %+.2f%% on the day.",
			name, q.Price, q.Currency, q.ChangePct))
	} else {
		parts = append(parts, fmt.Sprintf("No live quote is available for %s.", r.Code))
	}

	if t := r.Trend; t != nil {
		direction := "above"
		if t.Last < t.MA20 {
			direction = "below"
		}
		parts = append(parts, fmt.Sprintf("The last close of %.2f is %s its 20-day average of %.2f, a %+.2f%% move over 20 sessions.",
			t.Last, direction, t.MA20, t.Ret20*100))
	} else {
		parts = append(parts, "There is not enough price history for a 20-day trend.")
	}

	if f := r.Financials; f.HasData() {
		parts = append(parts, fmt.Sprintf("Latest annual revenue was %s and net income %s %s.",
			formatAmount(f.Revenue), formatAmount(f.NetIncome), f.Currency))
	}

	parts = append(parts, fmt.Sprintf("%d recent headlines were found.", len(r.News)))
	if len(r.News) > 0 {
		parts = append(parts, "Top story: "+r.News[0].Title+".")
	}
	return strings.Join(parts, " ")
}

func formatAmount(v *float64) string {
	if v == nil {
		return "n/a"
	}
	abs := *v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", *v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", *v/1e6)
	default:
		return fmt.Sprintf("%.0f", *v)
	}
}

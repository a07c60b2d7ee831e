package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"quote-desk/internal/domain"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// RenderNAVChart writes a PNG line chart of the NAV curve to w.
func RenderNAVChart(result *domain.BacktestResult, w io.Writer) error {
	if result == nil || len(result.NAV) < 2 {
		return fmt.Errorf("need at least 2 nav points")
	}

	xValues := make([]time.Time, 0, len(result.NAV))
	yValues := make([]float64, 0, len(result.NAV))
	for _, p := range result.NAV {
		d, err := time.Parse(domain.DateLayout, p.Date)
		if err != nil {
			return fmt.Errorf("bad nav date %q: %w", p.Date, err)
		}
		xValues = append(xValues, d)
		yValues = append(yValues, p.Value)
	}

	graph := chart.Chart{
		Title:  "NAV " + strings.Join(result.Symbols, ", "),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("2006-01")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "NAV",
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2563eb"),
					StrokeWidth: 2,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}

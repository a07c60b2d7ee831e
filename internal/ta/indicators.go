package ta

import (
	"math"

	"quote-desk/internal/domain"

	"gonum.org/v1/gonum/stat"
)

const (
	// TrendWindow is the number of closes the trend window looks back over.
	TrendWindow = 20
	// TradingDays annualizes daily statistics.
	TradingDays = 252
)

// ComputeTrend returns the last close, the 20-day mean and the 20-day return.
// It returns nil when fewer than 20 closes are available.
func ComputeTrend(closes []float64) *domain.Trend {
	n := len(closes)
	if n < TrendWindow {
		return nil
	}
	last := closes[n-1]
	base := closes[n-TrendWindow]
	var ret20 float64
	if base != 0 {
		ret20 = last/base - 1
	}
	return &domain.Trend{
		Last:  last,
		MA20:  stat.Mean(closes[n-TrendWindow:], nil),
		Ret20: ret20,
	}
}

// SMA returns the simple moving average series; positions before the first full window are NaN.
func SMA(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// DailyReturns returns v[i]/v[i-1] - 1 for consecutive values.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// AnnualizedVolatility is the population standard deviation of returns scaled by sqrt(252).
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.PopStdDev(returns, nil) * math.Sqrt(TradingDays)
}

// MaxDrawdown returns min(v/peak - 1) over the series, so 0 for a series that never falls.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	var worst float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := v/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// RSI returns the latest Wilder RSI value, or false when there are not enough closes.
func RSI(closes []float64, period int) (float64, bool) {
	series := RSISeries(closes, period)
	if len(series) == 0 {
		return 0, false
	}
	last := series[len(series)-1]
	if math.IsNaN(last) {
		return 0, false
	}
	return last, true
}

func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) <= period {
		return nil
	}
	series := make([]float64, len(closes))
	for i := range series {
		series[i] = math.NaN()
	}

	var gainSum float64
	var lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

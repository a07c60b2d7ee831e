package ta

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeTrendNeedsTwentyCloses(t *testing.T) {
	closes := make([]float64, 19)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	if ComputeTrend(closes) != nil {
		t.Fatal("expected nil trend below 20 closes")
	}
	if ComputeTrend(nil) != nil {
		t.Fatal("expected nil trend for empty input")
	}
}

func TestComputeTrendTwentyFivePoints(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i)*1.5
	}

	trend := ComputeTrend(closes)
	if trend == nil {
		t.Fatal("expected trend")
	}
	if trend.Last != closes[24] {
		t.Fatalf("expected last %v, got %v", closes[24], trend.Last)
	}
	wantRet := closes[24]/closes[5] - 1
	if !almostEqual(trend.Ret20, wantRet) {
		t.Fatalf("expected ret20 %v, got %v", wantRet, trend.Ret20)
	}
	var sum float64
	for _, c := range closes[5:] {
		sum += c
	}
	if !almostEqual(trend.MA20, sum/20) {
		t.Fatalf("expected ma20 %v, got %v", sum/20, trend.MA20)
	}
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4}, 2)
	if !math.IsNaN(out[0]) {
		t.Fatalf("expected NaN before first window, got %v", out[0])
	}
	want := []float64{1.5, 2.5, 3.5}
	for i, w := range want {
		if !almostEqual(out[i+1], w) {
			t.Fatalf("sma[%d] = %v, want %v", i+1, out[i+1], w)
		}
	}
}

func TestDailyReturnsAndVolatility(t *testing.T) {
	rets := DailyReturns([]float64{100, 110, 99})
	if len(rets) != 2 || !almostEqual(rets[0], 0.1) || !almostEqual(rets[1], -0.1) {
		t.Fatalf("unexpected returns: %v", rets)
	}
	// population stdev of {0.1, -0.1} is 0.1
	if got := AnnualizedVolatility(rets); !almostEqual(got, 0.1*math.Sqrt(252)) {
		t.Fatalf("unexpected volatility: %v", got)
	}
	if AnnualizedVolatility(nil) != 0 {
		t.Fatal("expected zero volatility for no returns")
	}
}

func TestMaxDrawdown(t *testing.T) {
	if dd := MaxDrawdown([]float64{1, 2, 3, 4}); dd != 0 {
		t.Fatalf("expected 0 drawdown for monotonic series, got %v", dd)
	}
	if dd := MaxDrawdown([]float64{100, 120, 90, 130, 117}); !almostEqual(dd, 90.0/120-1) {
		t.Fatalf("unexpected drawdown: %v", dd)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !almostEqual(mean, 5) || !almostEqual(std, 2) {
		t.Fatalf("expected mean 5 std 2, got %v %v", mean, std)
	}
}

func TestRSI(t *testing.T) {
	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(i + 1)
	}
	if v, ok := RSI(up, 14); !ok || v != 100 {
		t.Fatalf("expected RSI 100 for rising series, got %v %v", v, ok)
	}
	if _, ok := RSI(up[:10], 14); ok {
		t.Fatal("expected no RSI with too few closes")
	}
}

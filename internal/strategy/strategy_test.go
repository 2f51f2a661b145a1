package strategy

import (
	"context"
	"testing"

	"TradeForge/internal/domain/models"
)

func mkHistory(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSentimentNoHeadlines(t *testing.T) {
	s := NewSentiment()
	v, err := s.Evaluate(context.Background(), "BTCUSD", &models.MarketContext{Symbol: "BTCUSD", Price: 50000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Direction != models.Hold || v.Confidence != 0 {
		t.Fatalf("want HOLD/0.0, got %s/%v", v.Direction, v.Confidence)
	}
	if v.Rationale != "no news headlines available" {
		t.Fatalf("unexpected rationale %q", v.Rationale)
	}
}

func TestSentimentBullish(t *testing.T) {
	s := NewSentiment()
	mctx := &models.MarketContext{
		Symbol: "BTCUSD",
		Price:  50000,
		Headlines: []string{
			"Bitcoin surges to new record high on ETF approval",
			"Institutional adoption accelerates",
		},
	}
	v, err := s.Evaluate(context.Background(), "BTCUSD", mctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Direction != models.Buy {
		t.Fatalf("want BUY, got %s (%s)", v.Direction, v.Rationale)
	}
	if v.Confidence != 0.8 {
		t.Fatalf("strong bullish wording should score 0.8, got %v", v.Confidence)
	}
}

func TestSentimentTieHolds(t *testing.T) {
	s := NewSentiment()
	mctx := &models.MarketContext{
		Symbol:    "ETHUSD",
		Headlines: []string{"ETH price could jump or drop after upgrade"},
	}
	v, _ := s.Evaluate(context.Background(), "ETHUSD", mctx)
	if v.Direction != models.Hold || v.Confidence != 0.3 {
		t.Fatalf("balanced mentions should HOLD/0.3, got %s/%v", v.Direction, v.Confidence)
	}
}

func TestSentimentDeterministic(t *testing.T) {
	s := NewSentiment()
	mctx := &models.MarketContext{
		Symbol:    "BTCUSD",
		Headlines: []string{"Exchange hack triggers selloff", "Regulators announce ban"},
	}
	first, _ := s.Evaluate(context.Background(), "BTCUSD", mctx)
	for i := 0; i < 10; i++ {
		again, _ := s.Evaluate(context.Background(), "BTCUSD", mctx)
		if again != first {
			t.Fatalf("evaluation not deterministic: %+v vs %+v", again, first)
		}
	}
	if first.Direction != models.Sell {
		t.Fatalf("want SELL, got %s", first.Direction)
	}
}

func TestTechnicalNoPrice(t *testing.T) {
	s := NewTechnical()
	v, err := s.Evaluate(context.Background(), "BTCUSD", &models.MarketContext{Symbol: "BTCUSD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Direction != models.Hold || v.Confidence != 0 || v.Rationale != "no price data available" {
		t.Fatalf("want HOLD/0.0 data gap, got %s/%v %q", v.Direction, v.Confidence, v.Rationale)
	}
}

func TestTechnicalShortHistory(t *testing.T) {
	s := NewTechnical()
	mctx := &models.MarketContext{Symbol: "BTCUSD", Price: 50000, PriceHistory: []float64{49000, 49500}}
	v, _ := s.Evaluate(context.Background(), "BTCUSD", mctx)
	if v.Direction != models.Hold || v.Confidence != 0.3 {
		t.Fatalf("short history should HOLD/0.3, got %s/%v", v.Direction, v.Confidence)
	}
}

func TestTechnicalUptrend(t *testing.T) {
	s := NewTechnical()
	// Steady uptrend: price above SMA20, SMA20 above SMA50, positive momentum
	// and RSI pushed high. SMA+momentum BUY should dominate the RSI SELL.
	history := mkHistory(60, 100, 1)
	mctx := &models.MarketContext{Symbol: "BTCUSD", Price: 165, PriceHistory: history}
	v, _ := s.Evaluate(context.Background(), "BTCUSD", mctx)
	if v.Direction != models.Buy {
		t.Fatalf("uptrend should vote BUY, got %s (%s)", v.Direction, v.Rationale)
	}
	if v.Confidence <= 0 || v.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", v.Confidence)
	}
}

func TestTechnicalFlatMarket(t *testing.T) {
	s := NewTechnical()
	mctx := &models.MarketContext{Symbol: "BTCUSD", Price: 100, PriceHistory: flat(60, 100)}
	v, _ := s.Evaluate(context.Background(), "BTCUSD", mctx)
	if v.Direction != models.Hold {
		t.Fatalf("flat market should HOLD, got %s (%s)", v.Direction, v.Rationale)
	}
}

func TestVolumeNoData(t *testing.T) {
	s := NewVolume()
	v, err := s.Evaluate(context.Background(), "BTCUSD", &models.MarketContext{Symbol: "BTCUSD", Price: 50000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Direction != models.Hold || v.Confidence != 0 || v.Rationale != "no volume data available" {
		t.Fatalf("want HOLD/0.0 data gap, got %s/%v %q", v.Direction, v.Confidence, v.Rationale)
	}
}

func TestVolumeBullishDivergence(t *testing.T) {
	s := NewVolume()
	// Price up >2% over the last 5 periods with recent volume well above the
	// prior window: strong bullish confirmation.
	prices := append(flat(15, 100), 100, 101, 102, 103, 104)
	volumes := append(flat(15, 1000), 2000, 2100, 2200, 2300, 2400)
	mctx := &models.MarketContext{
		Symbol:        "BTCUSD",
		Price:         105,
		Volume:        2500,
		PriceHistory:  prices,
		VolumeHistory: volumes,
	}
	v, _ := s.Evaluate(context.Background(), "BTCUSD", mctx)
	if v.Direction != models.Buy {
		t.Fatalf("rising price on rising volume should vote BUY, got %s (%s)", v.Direction, v.Rationale)
	}
}

func TestVolumeQuietMarket(t *testing.T) {
	s := NewVolume()
	mctx := &models.MarketContext{
		Symbol:        "BTCUSD",
		Price:         100,
		Volume:        1000,
		PriceHistory:  flat(30, 100),
		VolumeHistory: flat(30, 1000),
	}
	v, _ := s.Evaluate(context.Background(), "BTCUSD", mctx)
	if v.Direction != models.Hold {
		t.Fatalf("quiet market should HOLD, got %s (%s)", v.Direction, v.Rationale)
	}
	if v.Confidence <= 0 || v.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", v.Confidence)
	}
}

func TestRegistryOrderAndConfigure(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewSentiment(), 1.0); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(NewTechnical(), 1.0); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(NewVolume(), 0.8); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(NewSentiment(), 1.0); err == nil {
		t.Fatal("duplicate registration should fail")
	}

	want := []string{"sentiment", "technical", "volume"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}

	if err := r.Configure("technical", false, 1.0); err != nil {
		t.Fatal(err)
	}
	enabled := r.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("want 2 enabled strategies, got %d", len(enabled))
	}
	if enabled[0].Strategy.Name() != "sentiment" || enabled[1].Strategy.Name() != "volume" {
		t.Fatalf("enabled order wrong: %s, %s", enabled[0].Strategy.Name(), enabled[1].Strategy.Name())
	}
	if enabled[1].Weight != 0.8 {
		t.Fatalf("volume weight = %v, want 0.8", enabled[1].Weight)
	}

	if err := r.Configure("unknown", true, 1.0); err == nil {
		t.Fatal("configuring unknown strategy should fail")
	}
	if err := r.Register(NewSentiment(), -1); err == nil {
		t.Fatal("negative weight should be rejected")
	}
}

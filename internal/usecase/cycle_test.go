package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/engine"
	"TradeForge/internal/paper"
	"TradeForge/internal/repository"
	"TradeForge/internal/service/notify"
	"TradeForge/internal/strategy"
	"TradeForge/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordDecision(string, string, string) {}
func (nopMetrics) RecordTrade(string, string)            {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordConfidence(string, float64)      {}
func (nopMetrics) RecordLastPrice(string, float64)       {}
func (nopMetrics) RecordLatency(string, float64)         {}

type fixedStrategy struct {
	name string
	vote models.Vote
}

func (s *fixedStrategy) Name() string { return s.name }

func (s *fixedStrategy) Evaluate(context.Context, string, *models.MarketContext) (models.Vote, error) {
	return s.vote, nil
}

type cycleFixture struct {
	runner *CycleRunner
	store  *repository.MemoryTraceStore
	ledger *paper.Ledger
}

func newCycleFixture(t *testing.T, strategies ...*fixedStrategy) *cycleFixture {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}

	reg := strategy.NewRegistry()
	for _, s := range strategies {
		if err := reg.Register(s, 1.0); err != nil {
			t.Fatal(err)
		}
	}

	store := repository.NewMemoryTraceStore()
	ledger := paper.NewLedger()
	builder := NewContextBuilder(nil)
	runner := NewCycleRunner(
		reg,
		engine.NewEvaluator(log),
		engine.NewAggregator(),
		builder,
		ledger,
		paper.NewTrader(ledger, log),
		paper.NewRiskGuard(decimal.RequireFromString("100000"), log),
		NewTraceRouter(nil, store, nopMetrics{}, "memory"),
		notify.NopNotifier{},
		nopMetrics{},
		log,
	)
	return &cycleFixture{runner: runner, store: store, ledger: ledger}
}

func (f *cycleFixture) feedTicks(t *testing.T, symbol string, prices ...float64) {
	t.Helper()
	builder := f.runner.builder
	for i, p := range prices {
		err := builder.Process(context.Background(), &models.Tick{
			Symbol:    symbol,
			Price:     p,
			Volume:    1000,
			Timestamp: time.Now().Unix() - int64(len(prices)-i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

var testCfg = CycleConfig{
	Policy:    models.WeightedVote,
	Threshold: 0.7,
	FeeRate:   paper.DefaultFeeRate,
}

func TestRunCycleExecutesTradeAndRecordsTrace(t *testing.T) {
	f := newCycleFixture(t,
		&fixedStrategy{name: "alpha", vote: models.Vote{Direction: models.Buy, Confidence: 0.9, Rationale: "up"}},
		&fixedStrategy{name: "beta", vote: models.Vote{Direction: models.Hold, Confidence: 0.2, Rationale: "flat"}},
	)
	f.feedTicks(t, "BTCUSD", 50000)

	outcome, err := f.runner.RunCycle(context.Background(), "c1", "BTCUSD", testCfg)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Executed {
		t.Fatalf("BUY 0.9 over threshold 0.7 should execute: %s", outcome.Reason)
	}

	pos, ok := f.ledger.Get("BTCUSD")
	if !ok || pos.Amount.Sign() <= 0 {
		t.Fatal("executed BUY should open a position")
	}

	tr, err := f.store.LatestDecision(context.Background(), "BTCUSD")
	if err != nil {
		t.Fatal(err)
	}
	if !tr.Executed || tr.TradeID == "" || tr.CycleID != "c1" {
		t.Fatalf("trace incomplete: %+v", tr)
	}
	if tr.Decision.Direction != models.Buy {
		t.Fatalf("trace direction = %s", tr.Decision.Direction)
	}

	trades, err := f.store.Trades(context.Background(), "BTCUSD", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 1 || trades[0].DecisionID != tr.Decision.ID {
		t.Fatalf("trade must reference the decision: %+v", trades)
	}
}

func TestRunCycleHoldRecordsTraceWithoutTrade(t *testing.T) {
	f := newCycleFixture(t,
		&fixedStrategy{name: "alpha", vote: models.Vote{Direction: models.Hold, Confidence: 0.9}},
	)
	f.feedTicks(t, "BTCUSD", 50000)

	outcome, err := f.runner.RunCycle(context.Background(), "c1", "BTCUSD", testCfg)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Executed {
		t.Fatal("HOLD must not execute")
	}

	tr, err := f.store.LatestDecision(context.Background(), "BTCUSD")
	if err != nil {
		t.Fatalf("HOLD cycles still record telemetry: %v", err)
	}
	if tr.Executed || tr.TradeID != "" {
		t.Fatalf("HOLD trace must carry no trade: %+v", tr)
	}
	if trades, _ := f.store.Trades(context.Background(), "", 10); len(trades) != 0 {
		t.Fatal("HOLD must not create ledger entries")
	}
}

func TestRunCycleSellWithoutPositionPropagatesError(t *testing.T) {
	f := newCycleFixture(t,
		&fixedStrategy{name: "alpha", vote: models.Vote{Direction: models.Sell, Confidence: 0.95}},
	)
	f.feedTicks(t, "ETHUSD", 3000)

	outcome, err := f.runner.RunCycle(context.Background(), "c1", "ETHUSD", testCfg)
	var insuff *models.InsufficientPositionError
	if !errors.As(err, &insuff) {
		t.Fatalf("want InsufficientPositionError, got %v", err)
	}
	if outcome == nil {
		t.Fatal("outcome should still be returned")
	}

	// the decision trace is still recorded, without a trade
	tr, err2 := f.store.LatestDecision(context.Background(), "ETHUSD")
	if err2 != nil {
		t.Fatal(err2)
	}
	if tr.Executed || tr.TradeID != "" {
		t.Fatalf("failed trade must not appear executed: %+v", tr)
	}
}

func TestRunCycleRejectsNonCanonicalSymbol(t *testing.T) {
	f := newCycleFixture(t,
		&fixedStrategy{name: "alpha", vote: models.Vote{Direction: models.Buy, Confidence: 0.9}},
	)
	for _, bad := range []string{"BTC/USD", "btcusd", "XBT"} {
		if _, err := f.runner.RunCycle(context.Background(), "c1", bad, testCfg); !errors.Is(err, models.ErrUnknownSymbol) {
			t.Fatalf("symbol %q should be rejected, got %v", bad, err)
		}
	}
}

func TestRunCycleRejectsBadConfig(t *testing.T) {
	f := newCycleFixture(t,
		&fixedStrategy{name: "alpha", vote: models.Vote{Direction: models.Buy, Confidence: 0.9}},
	)
	f.feedTicks(t, "BTCUSD", 50000)

	var cfgErr *models.ConfigurationError
	_, err := f.runner.RunCycle(context.Background(), "c1", "BTCUSD", CycleConfig{Policy: "median", Threshold: 0.7})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("bad policy should be ConfigurationError, got %v", err)
	}
	_, err = f.runner.RunCycle(context.Background(), "c1", "BTCUSD", CycleConfig{Policy: models.WeightedVote, Threshold: 1.5})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("bad threshold should be ConfigurationError, got %v", err)
	}
}

func TestRunCycleBuyThenSellClosesPosition(t *testing.T) {
	f := newCycleFixture(t,
		&fixedStrategy{name: "alpha", vote: models.Vote{Direction: models.Buy, Confidence: 0.9}},
	)
	f.feedTicks(t, "BTCUSD", 50000)
	if _, err := f.runner.RunCycle(context.Background(), "c1", "BTCUSD", testCfg); err != nil {
		t.Fatal(err)
	}

	// flip the strategy to SELL and run again at a higher price
	f.runner.registry = strategy.NewRegistry()
	if err := f.runner.registry.Register(&fixedStrategy{name: "alpha", vote: models.Vote{Direction: models.Sell, Confidence: 0.9}}, 1.0); err != nil {
		t.Fatal(err)
	}
	f.feedTicks(t, "BTCUSD", 55000)

	if _, err := f.runner.RunCycle(context.Background(), "c2", "BTCUSD", testCfg); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.ledger.Get("BTCUSD"); ok {
		t.Fatal("full sell should close the position")
	}
	trades, _ := f.store.Trades(context.Background(), "BTCUSD", 10)
	if len(trades) != 2 {
		t.Fatalf("want 2 trades, got %d", len(trades))
	}
	if !trades[0].Closed {
		t.Fatal("latest trade should be the closing sell")
	}
	if trades[0].RealizedPnL.Sign() <= 0 {
		t.Fatalf("selling higher should realize profit, got %s", trades[0].RealizedPnL)
	}
}

func TestContextBuilderRollingWindowsAndDedup(t *testing.T) {
	b := NewContextBuilder(nil)
	ctx := context.Background()

	for i := 0; i < maxHistory+50; i++ {
		if err := b.Process(ctx, &models.Tick{Symbol: "BTC/USD", Price: float64(100 + i), Volume: 10, Timestamp: time.Now().Unix()}); err != nil {
			t.Fatal(err)
		}
	}
	snap := b.Snapshot("BTCUSD")
	if len(snap.PriceHistory) != maxHistory {
		t.Fatalf("history should cap at %d, got %d", maxHistory, len(snap.PriceHistory))
	}
	if snap.Price != float64(100+maxHistory+50-1) {
		t.Fatalf("latest price = %v", snap.Price)
	}
	last := snap.PriceHistory[len(snap.PriceHistory)-1]
	if last != snap.Price {
		t.Fatalf("history tail %v should be latest price %v", last, snap.Price)
	}

	if err := b.AddHeadline("BTC", "Bitcoin rallies"); err != nil {
		t.Fatal(err)
	}
	if err := b.AddHeadline("btcusd", "Bitcoin rallies"); err != nil {
		t.Fatal(err)
	}
	snap = b.Snapshot("BTCUSD")
	if len(snap.Headlines) != 1 {
		t.Fatalf("duplicate headline should dedup, got %d", len(snap.Headlines))
	}

	if err := b.Process(ctx, &models.Tick{Symbol: "WHAT", Price: 1, Volume: 1, Timestamp: 1}); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("unknown symbol should be rejected, got %v", err)
	}

	// snapshots are independent copies
	snap.PriceHistory[0] = -1
	if b.Snapshot("BTCUSD").PriceHistory[0] == -1 {
		t.Fatal("snapshot must not alias internal state")
	}
}

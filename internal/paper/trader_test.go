package paper

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"TradeForge/internal/domain/models"
	"TradeForge/pkg/logger"
)

func testTrader(t *testing.T) (*Trader, *Ledger) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}
	ledger := NewLedger()
	return NewTrader(ledger, log), ledger
}

func executedOutcome(symbol string, dir models.Direction, price float64) models.ExecutionOutcome {
	return models.ExecutionOutcome{
		Decision: models.AggregatedDecision{
			ID:            "dec-" + symbol + "-" + string(dir),
			Symbol:        symbol,
			ObservedPrice: price,
			Direction:     dir,
			Confidence:    0.9,
		},
		Executed: true,
		Reason:   "confidence 0.90 met threshold 0.70",
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplyNonExecutedIsNoOp(t *testing.T) {
	trader, ledger := testTrader(t)

	for _, out := range []models.ExecutionOutcome{
		{
			Decision: models.AggregatedDecision{Symbol: "BTCUSD", Direction: models.Hold, ObservedPrice: 50000},
			Executed: false,
			Reason:   "direction was HOLD",
		},
		{
			Decision: models.AggregatedDecision{Symbol: "BTCUSD", Direction: models.Buy, Confidence: 0.4, ObservedPrice: 50000},
			Executed: false,
			Reason:   "confidence 0.40 below threshold 0.70 (gap 0.30)",
		},
	} {
		rec, err := trader.Apply(out, dec("0.1"), DefaultFeeRate)
		if err != nil {
			t.Fatalf("non-executed outcome must not error: %v", err)
		}
		if rec != nil {
			t.Fatalf("non-executed outcome must not create a record: %+v", rec)
		}
	}
	if got := ledger.All(); len(got) != 0 {
		t.Fatalf("ledger must stay empty, has %d positions", len(got))
	}
}

func TestBuyOpensPositionAndChargesFee(t *testing.T) {
	trader, ledger := testTrader(t)

	rec, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 50000), dec("0.1"), DefaultFeeRate)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("executed BUY must produce a record")
	}
	if !rec.GrossValue.Equal(dec("5000")) {
		t.Fatalf("gross = %s, want 5000", rec.GrossValue)
	}
	if !rec.Fee.Equal(dec("13")) { // 5000 * 0.0026
		t.Fatalf("fee = %s, want 13", rec.Fee)
	}
	if !rec.NetValue.Equal(dec("5013")) {
		t.Fatalf("BUY cost = %s, want gross+fee 5013", rec.NetValue)
	}
	if rec.DecisionID != "dec-BTCUSD-BUY" {
		t.Fatalf("record must reference the decision, got %q", rec.DecisionID)
	}

	pos, ok := ledger.Get("BTCUSD")
	if !ok {
		t.Fatal("position should exist after BUY")
	}
	if !pos.Amount.Equal(dec("0.1")) || !pos.AvgEntryPrice.Equal(dec("50000")) {
		t.Fatalf("position = %s @ %s", pos.Amount, pos.AvgEntryPrice)
	}
	if pos.OpeningDecision != "dec-BTCUSD-BUY" || pos.OpeningTrade != rec.ID {
		t.Fatal("opening references should point at the first BUY")
	}
}

func TestBuyAveragesEntryPrice(t *testing.T) {
	trader, ledger := testTrader(t)

	if _, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 40000), dec("0.1"), decimal.Zero); err != nil {
		t.Fatal(err)
	}
	if _, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 60000), dec("0.1"), decimal.Zero); err != nil {
		t.Fatal(err)
	}
	pos, _ := ledger.Get("BTCUSD")
	if !pos.Amount.Equal(dec("0.2")) {
		t.Fatalf("amount = %s, want 0.2", pos.Amount)
	}
	if !pos.AvgEntryPrice.Equal(dec("50000")) {
		t.Fatalf("avg entry = %s, want quantity-weighted 50000", pos.AvgEntryPrice)
	}
}

func TestFullSellClosesPositionWithRealizedPnL(t *testing.T) {
	trader, ledger := testTrader(t)

	if _, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 50000), dec("0.1"), decimal.Zero); err != nil {
		t.Fatal(err)
	}
	if _, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 50000), dec("0.1"), decimal.Zero); err != nil {
		t.Fatal(err)
	}

	rec, err := trader.Apply(executedOutcome("BTCUSD", models.Sell, 55000), dec("0.2"), DefaultFeeRate)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Closed {
		t.Fatal("selling the full amount should close the position")
	}
	// (55000-50000)*0.2 - 11000*0.0026 = 1000 - 28.6
	if !rec.RealizedPnL.Equal(dec("971.4")) {
		t.Fatalf("realized pnl = %s, want 971.4", rec.RealizedPnL)
	}
	if !rec.NetValue.Equal(dec("10971.4")) {
		t.Fatalf("SELL proceeds = %s, want gross-fee 10971.4", rec.NetValue)
	}
	if _, ok := ledger.Get("BTCUSD"); ok {
		t.Fatal("closed position must be removed from the ledger")
	}
}

func TestPartialSellReducesPosition(t *testing.T) {
	trader, ledger := testTrader(t)

	if _, err := trader.Apply(executedOutcome("ETHUSD", models.Buy, 3000), dec("1"), decimal.Zero); err != nil {
		t.Fatal(err)
	}
	rec, err := trader.Apply(executedOutcome("ETHUSD", models.Sell, 3100), dec("0.4"), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Closed {
		t.Fatal("partial sell must not close the position")
	}
	pos, ok := ledger.Get("ETHUSD")
	if !ok || !pos.Amount.Equal(dec("0.6")) {
		t.Fatalf("position after partial sell = %s", pos.Amount)
	}
	if !pos.AvgEntryPrice.Equal(dec("3000")) {
		t.Fatalf("avg entry must not change on sell, got %s", pos.AvgEntryPrice)
	}
}

func TestOversellFailsAtomically(t *testing.T) {
	trader, ledger := testTrader(t)

	if _, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 50000), dec("0.1"), DefaultFeeRate); err != nil {
		t.Fatal(err)
	}
	before, _ := ledger.Get("BTCUSD")

	_, err := trader.Apply(executedOutcome("BTCUSD", models.Sell, 50000), dec("0.5"), DefaultFeeRate)
	var insuff *models.InsufficientPositionError
	if !errors.As(err, &insuff) {
		t.Fatalf("want InsufficientPositionError, got %v", err)
	}
	if !insuff.Requested.Equal(dec("0.5")) || !insuff.Held.Equal(dec("0.1")) {
		t.Fatalf("error detail wrong: requested %s held %s", insuff.Requested, insuff.Held)
	}

	after, ok := ledger.Get("BTCUSD")
	if !ok {
		t.Fatal("position must survive a failed sell")
	}
	if !after.Amount.Equal(before.Amount) || !after.AvgEntryPrice.Equal(before.AvgEntryPrice) || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("position changed by failed sell: %+v vs %+v", after, before)
	}
}

func TestSellWithNoPositionFails(t *testing.T) {
	trader, _ := testTrader(t)
	_, err := trader.Apply(executedOutcome("SOLUSD", models.Sell, 150), dec("1"), DefaultFeeRate)
	var insuff *models.InsufficientPositionError
	if !errors.As(err, &insuff) {
		t.Fatalf("want InsufficientPositionError, got %v", err)
	}
	if !insuff.Held.IsZero() {
		t.Fatalf("held should be 0, got %s", insuff.Held)
	}
}

func TestApplyRejectsBadInputs(t *testing.T) {
	trader, _ := testTrader(t)

	if _, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 50000), decimal.Zero, DefaultFeeRate); err == nil {
		t.Fatal("zero amount should be rejected")
	}
	if _, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 0), dec("0.1"), DefaultFeeRate); err == nil {
		t.Fatal("missing price should be rejected")
	}
	_, err := trader.Apply(executedOutcome("BTCUSD", models.Buy, 50000), dec("0.1"), dec("-0.01"))
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("negative fee rate should be a ConfigurationError, got %v", err)
	}
}

func TestRiskGuardShutdownOnDailyLoss(t *testing.T) {
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	g := NewRiskGuard(dec("200"), log)

	if !g.CanTrade() {
		t.Fatal("fresh guard should allow trading")
	}
	g.RecordPnL(dec("-11")) // over the 5% of 200 limit
	if g.CanTrade() {
		t.Fatal("guard should halt after daily loss limit")
	}
	if !g.Stats().Shutdown {
		t.Fatal("stats should report shutdown")
	}
	// stays shut down for the rest of the day
	if g.CanTrade() {
		t.Fatal("shutdown must persist")
	}
}

func TestRiskGuardResetsNextDay(t *testing.T) {
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	g := NewRiskGuard(dec("200"), log)
	g.RecordPnL(dec("-50"))
	if g.CanTrade() {
		t.Fatal("should be shut down")
	}

	tomorrow := time.Now().UTC().Add(25 * time.Hour)
	g.now = func() time.Time { return tomorrow }
	if !g.CanTrade() {
		t.Fatal("shutdown should clear on the next day")
	}
	if !g.Stats().DailyPnL.IsZero() {
		t.Fatal("daily pnl should reset on the next day")
	}
}

func TestRiskGuardPositionSize(t *testing.T) {
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	g := NewRiskGuard(dec("200"), log)

	// 3% of 200 = $6 at $50000 = 0.00012
	if got := g.PositionSize(dec("50000")); !got.Equal(dec("0.00012")) {
		t.Fatalf("size = %s, want 0.00012", got)
	}
	if !g.PositionSize(decimal.Zero).IsZero() {
		t.Fatal("zero price should size to zero")
	}
}

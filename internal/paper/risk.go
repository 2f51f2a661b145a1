package paper

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"TradeForge/pkg/logger"
)

var (
	maxDailyDrawdownPct = decimal.RequireFromString("0.05")
	maxPositionSizePct  = decimal.RequireFromString("0.03")
)

// RiskGuard caps position sizes relative to capital and halts trading for
// the rest of the day once the daily loss limit is breached. The shutdown
// clears on the first check of the next calendar day.
type RiskGuard struct {
	mu              sync.Mutex
	startingCapital decimal.Decimal
	currentCapital  decimal.Decimal
	dailyPnL        decimal.Decimal
	lastReset       time.Time
	shutdown        bool
	log             *logger.Logger
	now             func() time.Time
}

// RiskStats is the guard's state snapshot for the dashboard.
type RiskStats struct {
	StartingCapital decimal.Decimal `json:"starting_capital"`
	CurrentCapital  decimal.Decimal `json:"current_capital"`
	DailyPnL        decimal.Decimal `json:"daily_pnl"`
	Shutdown        bool            `json:"shutdown"`
}

func NewRiskGuard(startingCapital decimal.Decimal, log *logger.Logger) *RiskGuard {
	g := &RiskGuard{
		startingCapital: startingCapital,
		currentCapital:  startingCapital,
		log:             log,
		now:             time.Now,
	}
	g.lastReset = g.now().UTC()
	return g
}

func (g *RiskGuard) resetIfNewDayLocked() {
	today := g.now().UTC().Truncate(24 * time.Hour)
	if !today.Equal(g.lastReset.Truncate(24 * time.Hour)) {
		g.dailyPnL = decimal.Zero
		g.lastReset = today
		g.shutdown = false
		g.log.Info("daily risk limits reset")
	}
}

// CanTrade reports whether new trades are allowed. Crossing the daily
// drawdown limit flips the guard into shutdown until the next day.
func (g *RiskGuard) CanTrade() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfNewDayLocked()

	if g.shutdown {
		return false
	}
	maxDailyLoss := g.startingCapital.Mul(maxDailyDrawdownPct)
	if g.dailyPnL.LessThan(maxDailyLoss.Neg()) {
		g.shutdown = true
		g.log.Error("trading halted: daily loss limit exceeded",
			logger.String("daily_pnl", g.dailyPnL.String()),
			logger.String("limit", maxDailyLoss.String()))
		return false
	}
	return true
}

// PositionSize returns how much of the asset to trade at price, capped at a
// fixed share of current capital. Rounded to 6 decimal places.
func (g *RiskGuard) PositionSize(price decimal.Decimal) decimal.Decimal {
	if price.Sign() <= 0 {
		return decimal.Zero
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	maxValue := g.currentCapital.Mul(maxPositionSizePct)
	return maxValue.Div(price).Round(6)
}

// RecordPnL folds a realized trade result into the daily and total capital
// tracking.
func (g *RiskGuard) RecordPnL(pnl decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyPnL = g.dailyPnL.Add(pnl)
	g.currentCapital = g.currentCapital.Add(pnl)
}

// Stats returns a snapshot of the guard's state.
func (g *RiskGuard) Stats() RiskStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfNewDayLocked()
	return RiskStats{
		StartingCapital: g.startingCapital,
		CurrentCapital:  g.currentCapital,
		DailyPnL:        g.dailyPnL,
		Shutdown:        g.shutdown,
	}
}

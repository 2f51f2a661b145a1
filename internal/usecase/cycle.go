package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	"TradeForge/internal/engine"
	"TradeForge/internal/paper"
	"TradeForge/internal/strategy"
	"TradeForge/internal/symbol"
	"TradeForge/pkg/logger"
)

// CycleConfig is the per-cycle snapshot of the tunable engine settings.
// It is captured once at the start of a cycle; configuration reloads take
// effect on the next cycle, never mid-flight.
type CycleConfig struct {
	Policy    models.Policy
	Threshold float64
	FeeRate   decimal.Decimal
}

// CycleRunner drives one full evaluation for one symbol: build context,
// collect votes, aggregate, gate, apply the paper trade, and record the
// trace. A cycle's writes fully commit before the scheduler starts the next.
type CycleRunner struct {
	registry   *strategy.Registry
	evaluator  *engine.Evaluator
	aggregator *engine.Aggregator
	builder    *ContextBuilder
	ledger     *paper.Ledger
	trader     *paper.Trader
	risk       *paper.RiskGuard
	router     *TraceRouter
	notifier   drepo.Notifier
	metrics    drepo.Metrics
	log        *logger.Logger
}

func NewCycleRunner(
	registry *strategy.Registry,
	evaluator *engine.Evaluator,
	aggregator *engine.Aggregator,
	builder *ContextBuilder,
	ledger *paper.Ledger,
	trader *paper.Trader,
	risk *paper.RiskGuard,
	router *TraceRouter,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	log *logger.Logger,
) *CycleRunner {
	return &CycleRunner{
		registry:   registry,
		evaluator:  evaluator,
		aggregator: aggregator,
		builder:    builder,
		ledger:     ledger,
		trader:     trader,
		risk:       risk,
		router:     router,
		notifier:   notifier,
		metrics:    metrics,
		log:        log,
	}
}

// RunCycle evaluates one canonical symbol and commits its telemetry.
// The returned outcome reflects what actually happened, including risk-guard
// suppression. Trade and persistence errors propagate; the decision trace is
// still recorded when the trade fails.
func (r *CycleRunner) RunCycle(ctx context.Context, cycleID, sym string, cfg CycleConfig) (*models.ExecutionOutcome, error) {
	start := time.Now()

	if err := symbol.Validate(sym); err != nil {
		return nil, err
	}
	if !cfg.Policy.Valid() {
		return nil, &models.ConfigurationError{Field: "policy", Msg: "unknown aggregation policy " + string(cfg.Policy)}
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, &models.ConfigurationError{Field: "threshold", Msg: "must be within [0,1]"}
	}

	mctx := r.builder.Snapshot(sym)
	votes := r.evaluator.Evaluate(ctx, r.registry.Enabled(), sym, mctx)

	decision, err := r.aggregator.Aggregate(sym, mctx.Price, votes, cfg.Policy)
	if err != nil {
		return nil, err
	}
	outcome := engine.Gate(decision, cfg.Threshold)

	r.metrics.RecordDecision(sym, string(decision.Direction), string(cfg.Policy))
	r.metrics.RecordConfidence(sym, decision.Confidence)

	if outcome.Executed && !r.risk.CanTrade() {
		outcome.Executed = false
		outcome.Reason = "suppressed by risk guard: daily loss limit reached"
	}

	rec, tradeErr := r.trader.Apply(outcome, r.tradeAmount(outcome), cfg.FeeRate)

	trace := &models.DecisionTrace{
		Decision:  decision,
		Executed:  outcome.Executed && rec != nil,
		Reason:    outcome.Reason,
		Threshold: cfg.Threshold,
		CycleID:   cycleID,
	}
	if tradeErr != nil {
		r.metrics.RecordError("trade_apply")
		trace.Reason = "trade failed: " + tradeErr.Error()
	}
	if rec != nil {
		trace.TradeID = rec.ID
	}
	if err := r.router.Record(ctx, trace, rec); err != nil {
		return &outcome, err
	}
	if tradeErr != nil {
		return &outcome, tradeErr
	}

	if rec != nil {
		r.metrics.RecordTrade(rec.Symbol, string(rec.Action))
		if rec.Closed {
			r.risk.RecordPnL(rec.RealizedPnL)
		}
		if err := r.notifier.NotifyTrade(ctx, rec); err != nil {
			// alert delivery is best effort
			r.log.Warn("trade notification failed", logger.Error(err))
		}
	}

	r.metrics.RecordLatency("cycle", time.Since(start).Seconds())
	return &outcome, nil
}

// RunAll runs one cycle for each symbol under a shared cycle id. Errors are
// logged and do not stop the remaining symbols.
func (r *CycleRunner) RunAll(ctx context.Context, symbols []string, cfg CycleConfig) []models.ExecutionOutcome {
	cycleID := uuid.NewString()
	out := make([]models.ExecutionOutcome, 0, len(symbols))
	for _, sym := range symbols {
		outcome, err := r.RunCycle(ctx, cycleID, sym, cfg)
		if err != nil {
			r.log.Warn("cycle failed",
				logger.String("symbol", sym),
				logger.Error(err))
		}
		if outcome != nil {
			out = append(out, *outcome)
		}
	}
	return out
}

// tradeAmount sizes the trade. BUYs use the risk guard's capital-based
// sizing; SELLs close the full held amount, so a SELL with no position falls
// through to the trader's insufficient-position check.
func (r *CycleRunner) tradeAmount(outcome models.ExecutionOutcome) decimal.Decimal {
	if !outcome.Executed {
		return decimal.Zero
	}
	d := outcome.Decision
	if d.Direction == models.Sell {
		if pos, ok := r.ledger.Get(d.Symbol); ok {
			return pos.Amount
		}
	}
	return r.risk.PositionSize(decimal.NewFromFloat(d.ObservedPrice))
}

package paper

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"TradeForge/internal/domain/models"
	"TradeForge/pkg/logger"
)

// DefaultFeeRate is the taker fee applied to every simulated trade: 0.26%
// of notional. A BUY costs gross plus fee; a SELL pays out gross minus fee.
var DefaultFeeRate = decimal.RequireFromString("0.0026")

// Trader mutates the ledger for executed decisions. It is the single place
// positions change: HOLD outcomes and below-threshold outcomes pass through
// untouched, returning neither a record nor an error.
type Trader struct {
	ledger *Ledger
	log    *logger.Logger
}

func NewTrader(ledger *Ledger, log *logger.Logger) *Trader {
	return &Trader{ledger: ledger, log: log}
}

// Apply executes one gated decision against the ledger. Non-executed
// outcomes return (nil, nil) with no side effects. SELLs that lack holdings
// fail with InsufficientPositionError and leave the position untouched.
// Each returned trade record references the decision that triggered it.
func (t *Trader) Apply(outcome models.ExecutionOutcome, amount, feeRate decimal.Decimal) (*models.TradeRecord, error) {
	if !outcome.Executed {
		return nil, nil
	}

	d := outcome.Decision
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("trade amount must be positive, got %s", amount)
	}
	if feeRate.Sign() < 0 {
		return nil, &models.ConfigurationError{Field: "fee_rate", Msg: "must be >= 0"}
	}
	price := decimal.NewFromFloat(d.ObservedPrice)
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("cannot trade %s without an observed price", d.Symbol)
	}

	lk := t.ledger.symbolLock(d.Symbol)
	lk.Lock()
	defer lk.Unlock()

	gross := price.Mul(amount)
	fee := gross.Mul(feeRate)

	rec := models.TradeRecord{
		ID:         uuid.NewString(),
		DecisionID: d.ID,
		Symbol:     d.Symbol,
		Action:     d.Direction,
		Amount:     amount,
		Price:      price,
		GrossValue: gross,
		Fee:        fee,
		Reason:     outcome.Reason,
		ExecutedAt: time.Now().UTC(),
	}

	switch d.Direction {
	case models.Buy:
		rec.NetValue = gross.Add(fee)
		t.applyBuy(&rec, d)
	case models.Sell:
		rec.NetValue = gross.Sub(fee)
		if err := t.applySell(&rec); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unexpected executed direction %q", d.Direction)
	}

	t.log.Info("paper trade executed",
		logger.String("symbol", rec.Symbol),
		logger.String("action", string(rec.Action)),
		logger.String("amount", rec.Amount.String()),
		logger.String("price", rec.Price.String()),
		logger.String("fee", rec.Fee.String()),
		logger.Bool("closed", rec.Closed))
	return &rec, nil
}

func (t *Trader) applyBuy(rec *models.TradeRecord, d models.AggregatedDecision) {
	now := time.Now().UTC()
	pos, ok := t.ledger.Get(rec.Symbol)
	if !ok {
		t.ledger.put(models.Position{
			Symbol:          rec.Symbol,
			Amount:          rec.Amount,
			AvgEntryPrice:   rec.Price,
			OpeningDecision: d.ID,
			OpeningTrade:    rec.ID,
			OpenedAt:        now,
			UpdatedAt:       now,
		})
		return
	}

	// Average the entry price over old and new lots, weighted by quantity.
	total := pos.Amount.Add(rec.Amount)
	oldCost := pos.AvgEntryPrice.Mul(pos.Amount)
	newCost := rec.Price.Mul(rec.Amount)
	pos.AvgEntryPrice = oldCost.Add(newCost).Div(total)
	pos.Amount = total
	pos.UpdatedAt = now
	t.ledger.put(pos)
}

func (t *Trader) applySell(rec *models.TradeRecord) error {
	pos, ok := t.ledger.Get(rec.Symbol)
	if !ok {
		return &models.InsufficientPositionError{
			Symbol:    rec.Symbol,
			Requested: rec.Amount,
			Held:      decimal.Zero,
		}
	}
	if rec.Amount.GreaterThan(pos.Amount) {
		return &models.InsufficientPositionError{
			Symbol:    rec.Symbol,
			Requested: rec.Amount,
			Held:      pos.Amount,
		}
	}

	pos.Amount = pos.Amount.Sub(rec.Amount)
	if pos.Amount.IsZero() {
		rec.Closed = true
		rec.RealizedPnL = rec.Price.Sub(pos.AvgEntryPrice).Mul(rec.Amount).Sub(rec.Fee)
		t.ledger.remove(rec.Symbol)
		return nil
	}
	pos.UpdatedAt = time.Now().UTC()
	t.ledger.put(pos)
	return nil
}

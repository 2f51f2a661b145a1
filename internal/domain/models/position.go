package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the simulated holding for one canonical symbol. Amount is
// always >= 0; a position whose amount reaches exactly zero is removed from
// the ledger rather than kept around.
type Position struct {
	Symbol          string          `json:"symbol"`
	Amount          decimal.Decimal `json:"amount"`
	AvgEntryPrice   decimal.Decimal `json:"avg_entry_price"`
	OpeningDecision string          `json:"opening_decision"` // decision id of the first BUY
	OpeningTrade    string          `json:"opening_trade"`    // trade id of the first BUY
	OpenedAt        time.Time       `json:"opened_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Clone returns a copy safe to hand out of the ledger.
func (p Position) Clone() Position { return p }

// TradeRecord is an immutable, append-only record of one executed BUY/SELL.
// DecisionID closes the auditability chain back to the triggering decision.
type TradeRecord struct {
	ID          string          `json:"id"`
	DecisionID  string          `json:"decision_id"`
	Symbol      string          `json:"symbol"`
	Action      Direction       `json:"action"`
	Amount      decimal.Decimal `json:"amount"`
	Price       decimal.Decimal `json:"price"`
	GrossValue  decimal.Decimal `json:"gross_value"`
	Fee         decimal.Decimal `json:"fee"`
	NetValue    decimal.Decimal `json:"net_value"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"` // non-zero only when a SELL closes the position
	Closed      bool            `json:"closed"`       // SELL reduced the position to zero
	Reason      string          `json:"reason"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

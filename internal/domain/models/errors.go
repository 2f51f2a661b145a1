package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol marks a symbol the engine refuses to evaluate because it
// is not in canonical form and cannot be recognized.
var ErrUnknownSymbol = errors.New("unknown symbol")

// InsufficientPositionError is returned when a SELL has no position to reduce
// or asks for more than is held. The ledger is left untouched.
type InsufficientPositionError struct {
	Symbol    string
	Requested decimal.Decimal
	Held      decimal.Decimal
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient position %s: requested %s, held %s",
		e.Symbol, e.Requested.String(), e.Held.String())
}

// ReferentialIntegrityError is returned when a trade record references a
// decision id the trace store does not know. The write is rejected; the
// process keeps running.
type ReferentialIntegrityError struct {
	DecisionID string
	TradeID    string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("trade %s references unknown decision %s", e.TradeID, e.DecisionID)
}

// ConfigurationError is fatal at startup or reload: bad policy name, negative
// weight, threshold outside [0,1], and similar.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Msg)
}

package service

import (
	"context"

	"TradeForge/internal/domain/models"
)

// Strategy is the capability interface every signal generator implements.
//
// Evaluate must be a pure function of its inputs: no side effects, and the
// same context at the same logical time yields the same vote (backtests rely
// on this). Missing context is not an error; the strategy returns a HOLD vote
// with confidence 0.0 and a rationale naming the missing input. A returned
// error (or a panic) is contained at the aggregator boundary and converted to
// the same HOLD vote, so one broken strategy never aborts the cycle.
type Strategy interface {
	Name() string
	Evaluate(ctx context.Context, symbol string, mctx *models.MarketContext) (models.Vote, error)
}

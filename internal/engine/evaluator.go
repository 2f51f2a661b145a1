package engine

import (
	"context"
	"fmt"
	"sync"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/strategy"
	"TradeForge/pkg/logger"
)

// Evaluator fans one market context out to every enabled strategy and
// collects their votes. A strategy that errors or panics contributes a
// HOLD/0.0 vote instead of aborting the cycle; the other strategies'
// votes are unaffected.
type Evaluator struct {
	log *logger.Logger
}

func NewEvaluator(log *logger.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// Evaluate runs the enabled strategies concurrently and returns their votes
// in registration order, each stamped with its configured weight.
func (e *Evaluator) Evaluate(ctx context.Context, entries []strategy.Entry, symbol string, mctx *models.MarketContext) []models.Vote {
	votes := make([]models.Vote, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry strategy.Entry) {
			defer wg.Done()
			votes[i] = e.safeEvaluate(ctx, entry, symbol, mctx)
		}(i, entry)
	}
	wg.Wait()
	return votes
}

func (e *Evaluator) safeEvaluate(ctx context.Context, entry strategy.Entry, symbol string, mctx *models.MarketContext) (vote models.Vote) {
	name := entry.Strategy.Name()
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("strategy panicked, contained as data gap",
				logger.String("strategy", name),
				logger.String("symbol", symbol),
				logger.Any("panic", r))
			vote = gapVote(name, entry.Weight, fmt.Sprintf("data gap: strategy panicked: %v", r))
		}
	}()

	v, err := entry.Strategy.Evaluate(ctx, symbol, mctx)
	if err != nil {
		e.log.Warn("strategy failed, contained as data gap",
			logger.String("strategy", name),
			logger.String("symbol", symbol),
			logger.Error(err))
		return gapVote(name, entry.Weight, fmt.Sprintf("data gap: %v", err))
	}

	v.Strategy = name
	v.Weight = entry.Weight
	if !v.Direction.Valid() {
		return gapVote(name, entry.Weight, fmt.Sprintf("data gap: invalid direction %q", v.Direction))
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return v
}

func gapVote(name string, weight float64, rationale string) models.Vote {
	return models.Vote{
		Strategy:  name,
		Direction: models.Hold,
		Rationale: rationale,
		Weight:    weight,
	}
}

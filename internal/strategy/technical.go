package strategy

import (
	"context"
	"fmt"
	"strings"

	"TradeForge/internal/domain/models"
)

// Technical votes on price-based indicators: SMA crossover, RSI, and
// short-term momentum.
type Technical struct{}

func NewTechnical() *Technical { return &Technical{} }

func (*Technical) Name() string { return "technical" }

type indicatorVote struct {
	dir  models.Direction
	conf float64
}

func (t *Technical) Evaluate(_ context.Context, _ string, mctx *models.MarketContext) (models.Vote, error) {
	v := models.Vote{Strategy: t.Name(), Direction: models.Hold}
	if mctx == nil || !mctx.HasPrice() {
		v.Rationale = "no price data available"
		return v, nil
	}

	price := mctx.Price
	history := mctx.PriceHistory

	var votes []indicatorVote
	var parts []string

	if len(history) >= 20 {
		iv := smaVote(price, history)
		votes = append(votes, iv)
		parts = append(parts, fmt.Sprintf("SMA: %s", iv.dir))
	}
	if len(history) >= 14 {
		iv := rsiVote(history)
		votes = append(votes, iv)
		parts = append(parts, fmt.Sprintf("RSI: %s", iv.dir))
	}
	if len(history) >= 5 {
		iv := momentumVote(price, history)
		votes = append(votes, iv)
		parts = append(parts, fmt.Sprintf("Momentum: %s", iv.dir))
	}

	if len(votes) == 0 {
		v.Confidence = 0.3
		v.Rationale = "insufficient price history for technical analysis"
		return v, nil
	}

	dir, conf := combineIndicators(votes)
	v.Direction = dir
	v.Confidence = conf
	v.Rationale = "Technical: " + strings.Join(parts, ", ")
	return v, nil
}

func smaVote(price float64, history []float64) indicatorVote {
	sma20 := mean(history[len(history)-20:])
	sma50 := sma20
	if len(history) >= 50 {
		sma50 = mean(history[len(history)-50:])
	}
	switch {
	case price > sma20 && sma20 > sma50:
		return indicatorVote{models.Buy, 0.7}
	case price < sma20 && sma20 < sma50:
		return indicatorVote{models.Sell, 0.7}
	default:
		return indicatorVote{models.Hold, 0.3}
	}
}

func rsiVote(history []float64) indicatorVote {
	changes := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		changes = append(changes, history[i]-history[i-1])
	}
	window := changes[len(changes)-14:]
	var gains, losses float64
	for _, c := range window {
		if c > 0 {
			gains += c
		} else {
			losses += -c
		}
	}
	avgGain := gains / 14
	avgLoss := losses / 14
	if avgGain == 0 && avgLoss == 0 {
		return indicatorVote{models.Hold, 0.4}
	}

	rsi := 100.0
	if avgLoss > 0 {
		rs := avgGain / avgLoss
		rsi = 100 - (100 / (1 + rs))
	}
	switch {
	case rsi < 30: // oversold
		return indicatorVote{models.Buy, 0.8}
	case rsi > 70: // overbought
		return indicatorVote{models.Sell, 0.8}
	default:
		return indicatorVote{models.Hold, 0.4}
	}
}

func momentumVote(price float64, history []float64) indicatorVote {
	ago := history[len(history)-5]
	if ago == 0 {
		return indicatorVote{models.Hold, 0.0}
	}
	changePct := (price - ago) / ago * 100
	switch {
	case changePct > 3:
		return indicatorVote{models.Buy, 0.6}
	case changePct < -3:
		return indicatorVote{models.Sell, 0.6}
	default:
		return indicatorVote{models.Hold, 0.4}
	}
}

// combineIndicators sums per-direction scores. When BUY and SELL scores are
// closely matched (within 0.2) the result falls back to HOLD: conflicting
// trend and mean-reversion indicators usually mean consolidation.
func combineIndicators(votes []indicatorVote) (models.Direction, float64) {
	var buyScore, sellScore, holdScore float64
	for _, iv := range votes {
		switch iv.dir {
		case models.Buy:
			buyScore += iv.conf
		case models.Sell:
			sellScore += iv.conf
		default:
			holdScore += iv.conf
		}
	}

	n := float64(len(votes))
	if diff := buyScore - sellScore; diff < 0.2 && diff > -0.2 && max64(buyScore, sellScore) > 0 {
		if holdScore > 0 {
			return models.Hold, clip1(holdScore / n)
		}
		return models.Hold, 0.4
	}

	switch {
	case buyScore >= sellScore && buyScore >= holdScore && buyScore > 0:
		return models.Buy, clip1(buyScore / n)
	case sellScore >= holdScore && sellScore > 0:
		return models.Sell, clip1(sellScore / n)
	case holdScore > 0:
		return models.Hold, clip1(holdScore / n)
	default:
		return models.Hold, 0.3
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clip1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

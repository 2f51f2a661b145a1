package repository

import (
	"TradeForge/internal/domain/models"
)

// computeStrategyStats folds a window of decision traces into per-strategy
// vote statistics. AgreementRate is measured against the final aggregated
// direction of each trace the strategy voted in.
func computeStrategyStats(traces []models.DecisionTrace) map[string]models.StrategyStats {
	type acc struct {
		stats   models.StrategyStats
		confSum float64
		agreed  int
	}
	byName := make(map[string]*acc)

	for _, tr := range traces {
		for _, v := range tr.Decision.Votes {
			a, ok := byName[v.Strategy]
			if !ok {
				a = &acc{stats: models.StrategyStats{Strategy: v.Strategy}}
				byName[v.Strategy] = a
			}
			a.stats.Total++
			a.confSum += v.Confidence
			switch v.Direction {
			case models.Buy:
				a.stats.BuyCount++
			case models.Sell:
				a.stats.SellCount++
			default:
				a.stats.HoldCount++
			}
			if v.Direction == tr.Decision.Direction {
				a.agreed++
			}
		}
	}

	out := make(map[string]models.StrategyStats, len(byName))
	for name, a := range byName {
		if a.stats.Total > 0 {
			n := float64(a.stats.Total)
			a.stats.MeanConf = a.confSum / n
			a.stats.AgreementRate = float64(a.agreed) / n
			a.stats.ActionRate = float64(a.stats.BuyCount+a.stats.SellCount) / n
		}
		out[name] = a.stats
	}
	return out
}

// computeAgreement builds the pairwise agreement matrix: for every pair of
// strategies that voted in the same trace, the share of traces where their
// directions matched. A strategy always agrees with itself.
func computeAgreement(traces []models.DecisionTrace) models.AgreementMatrix {
	joint := make(map[string]map[string]int)
	match := make(map[string]map[string]int)

	bump := func(m map[string]map[string]int, a, b string) {
		if m[a] == nil {
			m[a] = make(map[string]int)
		}
		m[a][b]++
	}

	for _, tr := range traces {
		votes := tr.Decision.Votes
		for i, a := range votes {
			for j, b := range votes {
				if i == j {
					continue
				}
				bump(joint, a.Strategy, b.Strategy)
				if a.Direction == b.Direction {
					bump(match, a.Strategy, b.Strategy)
				}
			}
		}
	}

	matrix := make(models.AgreementMatrix, len(joint))
	for a, row := range joint {
		matrix[a] = make(map[string]float64, len(row)+1)
		matrix[a][a] = 1.0
		for b, n := range row {
			matrix[a][b] = float64(match[a][b]) / float64(n)
		}
	}
	return matrix
}

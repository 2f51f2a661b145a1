package models

// StrategyStats summarizes one strategy's votes over a lookback window.
type StrategyStats struct {
	Strategy  string  `json:"strategy"`
	Total     int     `json:"total"`
	BuyCount  int     `json:"buy_count"`
	SellCount int     `json:"sell_count"`
	HoldCount int     `json:"hold_count"`
	MeanConf  float64 `json:"mean_confidence"`
	// AgreementRate is how often the strategy's vote matched the final
	// aggregated direction.
	AgreementRate float64 `json:"agreement_rate"`
	ActionRate    float64 `json:"action_rate"`
}

// AgreementMatrix holds pairwise agreement rates between strategies over a
// set of joint evaluations: matrix[a][b] = matching directions / joint count.
type AgreementMatrix map[string]map[string]float64

package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type LatestDecisionRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type DecisionHistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}

type StrategyStatsRequest struct {
	LookbackHours int `query:"lookback_hours" json:"lookback_hours" default:"168" validate:"gte=1,lte=8760"`
}

type AgreementRequest struct {
	LookbackHours int `query:"lookback_hours" json:"lookback_hours" default:"168" validate:"gte=1,lte=8760"`
}

type TradesRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}

type RunNowRequest struct {
	Symbol string `query:"symbol" json:"symbol"` // empty runs all configured symbols
}

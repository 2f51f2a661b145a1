package models

import "time"

// Policy selects how per-strategy votes are combined into one decision.
type Policy string

const (
	WeightedVote      Policy = "weighted_vote"
	HighestConfidence Policy = "highest_confidence"
	Unanimous         Policy = "unanimous"
)

// Valid reports whether p names a known aggregation policy.
func (p Policy) Valid() bool {
	switch p {
	case WeightedVote, HighestConfidence, Unanimous:
		return true
	default:
		return false
	}
}

// AggregatedDecision is the single combined decision for one symbol in one
// evaluation cycle. Confidence is always recomputed from Votes under Policy;
// it is never set independently.
type AggregatedDecision struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	ObservedPrice float64   `json:"observed_price"`
	Direction     Direction `json:"direction"`
	Confidence    float64   `json:"confidence"`
	Rationale     string    `json:"rationale"`
	Votes         []Vote    `json:"votes"` // contributing votes, registration order
	Policy        Policy    `json:"policy"`
	ComputedAt    time.Time `json:"computed_at"`
}

// ExecutionOutcome records whether a decision crossed the actionability
// threshold. Executed is true only for BUY/SELL with confidence >= threshold.
type ExecutionOutcome struct {
	Decision AggregatedDecision `json:"decision"`
	Executed bool               `json:"executed"`
	Reason   string             `json:"reason"`
}

// DecisionTrace is the full record of one evaluation cycle for one symbol:
// every vote, the aggregation result, the gate outcome, and the resulting
// trade (if any). It is the one canonical decision stream; trade records are
// linked back to it by DecisionID only, never merged into it.
type DecisionTrace struct {
	Decision  AggregatedDecision `json:"decision"`
	Executed  bool               `json:"executed"`
	Reason    string             `json:"reason"`
	Threshold float64            `json:"threshold"`
	TradeID   string             `json:"trade_id,omitempty"`
	CycleID   string             `json:"cycle_id,omitempty"`

	// Trade rides along when the telemetry backend is a broker, so trace and
	// trade arrive at the store in order. It is not persisted inside the
	// trace row; the store splits it back out.
	Trade *TradeRecord `json:"trade,omitempty"`
}

package engine

import (
	"fmt"

	"TradeForge/internal/domain/models"
)

// Gate compares an aggregated decision against the actionability threshold.
// Pure: it never mutates the decision and has no side effects. HOLD outcomes
// and below-threshold outcomes carry distinguishable reasons.
func Gate(decision models.AggregatedDecision, threshold float64) models.ExecutionOutcome {
	out := models.ExecutionOutcome{Decision: decision}

	if decision.Direction == models.Hold {
		out.Reason = "direction was HOLD"
		return out
	}
	if decision.Confidence < threshold {
		out.Reason = fmt.Sprintf("confidence %.2f below threshold %.2f (gap %.2f)",
			decision.Confidence, threshold, threshold-decision.Confidence)
		return out
	}

	out.Executed = true
	out.Reason = fmt.Sprintf("confidence %.2f met threshold %.2f", decision.Confidence, threshold)
	return out
}

package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"TradeForge/internal/domain/models"
)

// Aggregator combines per-strategy votes into one decision per symbol per
// cycle under a configured policy. Decision confidence is always derived
// from the votes, never set independently.
type Aggregator struct{}

func NewAggregator() *Aggregator { return &Aggregator{} }

// Aggregate combines votes (in registration order) into a single decision.
// An empty vote set yields a HOLD/0.0 decision, not an error; an unknown
// policy is a configuration error.
func (a *Aggregator) Aggregate(symbol string, observedPrice float64, votes []models.Vote, policy models.Policy) (models.AggregatedDecision, error) {
	d := models.AggregatedDecision{
		ID:            uuid.NewString(),
		Symbol:        symbol,
		ObservedPrice: observedPrice,
		Direction:     models.Hold,
		Policy:        policy,
		Votes:         append([]models.Vote(nil), votes...),
		ComputedAt:    time.Now().UTC(),
	}

	if !policy.Valid() {
		return d, &models.ConfigurationError{Field: "policy", Msg: fmt.Sprintf("unknown aggregation policy %q", policy)}
	}
	if len(votes) == 0 {
		d.Rationale = "no strategies evaluated"
		return d, nil
	}

	switch policy {
	case models.WeightedVote:
		d.Direction, d.Confidence = weightedVote(votes)
	case models.HighestConfidence:
		d.Direction, d.Confidence = highestConfidence(votes)
	case models.Unanimous:
		var ok bool
		d.Direction, d.Confidence, ok = unanimous(votes)
		if !ok {
			d.Rationale = "no consensus: " + voteSummary(votes)
			return d, nil
		}
	}

	d.Rationale = fmt.Sprintf("%s -> %s %.2f: %s", policy, d.Direction, d.Confidence, voteSummary(votes))
	return d, nil
}

// weightedVote buckets votes by direction and scores each bucket as
// sum(confidence * weight). The winning bucket's score is normalized
// asymmetrically: an actionable winner divides only by the actionable
// weight, so strategies that abstain with HOLD cannot dilute the conviction
// of those that took a position. A HOLD winner (or a vote set with zero
// actionable weight) divides by the total weight.
func weightedVote(votes []models.Vote) (models.Direction, float64) {
	scores := make(map[models.Direction]float64, 3)
	var order []models.Direction
	var actionableWeight, holdWeight float64
	for _, v := range votes {
		if _, seen := scores[v.Direction]; !seen {
			order = append(order, v.Direction)
		}
		scores[v.Direction] += v.Confidence * v.Weight
		if v.Direction.IsActionable() {
			actionableWeight += v.Weight
		} else {
			holdWeight += v.Weight
		}
	}

	// Buckets are visited in first-appearance order, so a tie resolves to
	// the direction backed by the earliest-registered strategy.
	winner := order[0]
	for _, dir := range order[1:] {
		if scores[dir] > scores[winner] {
			winner = dir
		}
	}
	score := scores[winner]

	if winner.IsActionable() && actionableWeight > 0 {
		return winner, clip1(score / actionableWeight)
	}
	if denom := actionableWeight + holdWeight; denom > 0 {
		return winner, clip1(score / denom)
	}
	return winner, 0
}

// highestConfidence copies direction and confidence from the single most
// confident vote, with ties resolved to the earliest-registered strategy.
func highestConfidence(votes []models.Vote) (models.Direction, float64) {
	best := votes[0]
	for _, v := range votes[1:] {
		if v.Confidence > best.Confidence {
			best = v
		}
	}
	return best.Direction, best.Confidence
}

// unanimous requires every vote to share one direction; the decision takes
// the mean confidence. Disagreement reports ok=false and the caller emits a
// HOLD/0.0 decision.
func unanimous(votes []models.Vote) (models.Direction, float64, bool) {
	dir := votes[0].Direction
	var sum float64
	for _, v := range votes {
		if v.Direction != dir {
			return models.Hold, 0, false
		}
		sum += v.Confidence
	}
	return dir, sum / float64(len(votes)), true
}

func voteSummary(votes []models.Vote) string {
	parts := make([]string, len(votes))
	for i, v := range votes {
		parts[i] = fmt.Sprintf("%s voted %s (%.2f)", v.Strategy, v.Direction, v.Confidence)
	}
	return strings.Join(parts, "; ")
}

func clip1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

package engine

import (
	"errors"
	"math"
	"strings"
	"testing"

	"TradeForge/internal/domain/models"
)

func vote(strategy string, dir models.Direction, conf, weight float64) models.Vote {
	return models.Vote{Strategy: strategy, Direction: dir, Confidence: conf, Weight: weight}
}

func TestWeightedVoteHoldAbstentionsDoNotDilute(t *testing.T) {
	// One strategy takes a BUY position while two others abstain. The BUY
	// score must normalize over the actionable weight only: 0.6/1.0, not
	// 0.6/2.8.
	votes := []models.Vote{
		vote("sentiment", models.Buy, 0.6, 1.0),
		vote("technical", models.Hold, 0.3, 1.0),
		vote("volume", models.Hold, 0.0, 0.8),
	}
	d, err := NewAggregator().Aggregate("BTCUSD", 50000, votes, models.WeightedVote)
	if err != nil {
		t.Fatal(err)
	}
	if d.Direction != models.Buy {
		t.Fatalf("direction = %s, want BUY (%s)", d.Direction, d.Rationale)
	}
	if math.Abs(d.Confidence-0.6) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.6", d.Confidence)
	}
}

func TestWeightedVoteMoreHoldVotesSameConfidence(t *testing.T) {
	base := []models.Vote{
		vote("a", models.Buy, 0.7, 1.0),
		vote("b", models.Hold, 0.2, 1.0),
	}
	padded := append(append([]models.Vote(nil), base...),
		vote("c", models.Hold, 0.4, 2.0),
		vote("d", models.Hold, 0.1, 5.0),
	)

	agg := NewAggregator()
	d1, _ := agg.Aggregate("BTCUSD", 1, base, models.WeightedVote)
	d2, _ := agg.Aggregate("BTCUSD", 1, padded, models.WeightedVote)
	if d1.Direction != models.Buy || d2.Direction != models.Buy {
		t.Fatalf("both should BUY, got %s and %s", d1.Direction, d2.Direction)
	}
	if d1.Confidence != d2.Confidence {
		t.Fatalf("adding HOLD voters changed actionable confidence: %v vs %v", d1.Confidence, d2.Confidence)
	}
}

func TestWeightedVoteHoldWinnerNormalizesOverTotalWeight(t *testing.T) {
	votes := []models.Vote{
		vote("a", models.Hold, 0.8, 1.0),
		vote("b", models.Hold, 0.4, 1.0),
		vote("c", models.Buy, 0.2, 1.0),
	}
	d, err := NewAggregator().Aggregate("ETHUSD", 3000, votes, models.WeightedVote)
	if err != nil {
		t.Fatal(err)
	}
	if d.Direction != models.Hold {
		t.Fatalf("direction = %s, want HOLD", d.Direction)
	}
	// hold score 1.2 over total weight 3.0
	if math.Abs(d.Confidence-0.4) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.4", d.Confidence)
	}
}

func TestWeightedVoteZeroActionableWeight(t *testing.T) {
	votes := []models.Vote{
		vote("a", models.Buy, 0.9, 0),
		vote("b", models.Hold, 0.5, 1.0),
	}
	d, _ := NewAggregator().Aggregate("BTCUSD", 1, votes, models.WeightedVote)
	if d.Direction != models.Hold {
		t.Fatalf("zero-weight BUY should lose to HOLD, got %s", d.Direction)
	}
}

func TestWeightedVoteConfidenceClipped(t *testing.T) {
	votes := []models.Vote{
		vote("a", models.Buy, 1.0, 2.0),
		vote("b", models.Buy, 1.0, 0.0),
	}
	d, _ := NewAggregator().Aggregate("BTCUSD", 1, votes, models.WeightedVote)
	if d.Confidence > 1 {
		t.Fatalf("confidence must clip to 1.0, got %v", d.Confidence)
	}
}

func TestWeightedVoteTieGoesToEarliestRegistered(t *testing.T) {
	votes := []models.Vote{
		vote("first", models.Sell, 0.5, 1.0),
		vote("second", models.Buy, 0.5, 1.0),
	}
	d, _ := NewAggregator().Aggregate("BTCUSD", 1, votes, models.WeightedVote)
	if d.Direction != models.Sell {
		t.Fatalf("tie should resolve to earliest-registered direction SELL, got %s", d.Direction)
	}
}

func TestHighestConfidence(t *testing.T) {
	votes := []models.Vote{
		vote("a", models.Hold, 0.4, 1.0),
		vote("b", models.Sell, 0.9, 1.0),
		vote("c", models.Buy, 0.7, 1.0),
	}
	d, err := NewAggregator().Aggregate("BTCUSD", 1, votes, models.HighestConfidence)
	if err != nil {
		t.Fatal(err)
	}
	if d.Direction != models.Sell || d.Confidence != 0.9 {
		t.Fatalf("want SELL/0.9, got %s/%v", d.Direction, d.Confidence)
	}
}

func TestHighestConfidenceTieGoesToEarliest(t *testing.T) {
	votes := []models.Vote{
		vote("a", models.Buy, 0.8, 1.0),
		vote("b", models.Sell, 0.8, 1.0),
	}
	d, _ := NewAggregator().Aggregate("BTCUSD", 1, votes, models.HighestConfidence)
	if d.Direction != models.Buy {
		t.Fatalf("tie should resolve to earliest vote, got %s", d.Direction)
	}
}

func TestUnanimousAgreementMeansMeanConfidence(t *testing.T) {
	votes := []models.Vote{
		vote("a", models.Buy, 0.6, 1.0),
		vote("b", models.Buy, 0.7, 1.0),
		vote("c", models.Buy, 0.8, 1.0),
	}
	d, err := NewAggregator().Aggregate("BTCUSD", 1, votes, models.Unanimous)
	if err != nil {
		t.Fatal(err)
	}
	if d.Direction != models.Buy {
		t.Fatalf("want BUY, got %s", d.Direction)
	}
	if math.Abs(d.Confidence-0.7) > 1e-9 {
		t.Fatalf("confidence = %v, want mean 0.7", d.Confidence)
	}
}

func TestUnanimousDisagreementHolds(t *testing.T) {
	votes := []models.Vote{
		vote("a", models.Buy, 0.9, 1.0),
		vote("b", models.Sell, 0.9, 1.0),
	}
	d, err := NewAggregator().Aggregate("BTCUSD", 1, votes, models.Unanimous)
	if err != nil {
		t.Fatal(err)
	}
	if d.Direction != models.Hold || d.Confidence != 0 {
		t.Fatalf("want HOLD/0.0, got %s/%v", d.Direction, d.Confidence)
	}
	if !strings.HasPrefix(d.Rationale, "no consensus") {
		t.Fatalf("rationale should report no consensus, got %q", d.Rationale)
	}
}

func TestAggregateEmptyVotes(t *testing.T) {
	d, err := NewAggregator().Aggregate("BTCUSD", 1, nil, models.WeightedVote)
	if err != nil {
		t.Fatalf("empty votes are not an error: %v", err)
	}
	if d.Direction != models.Hold || d.Confidence != 0 {
		t.Fatalf("want HOLD/0.0, got %s/%v", d.Direction, d.Confidence)
	}
	if d.Rationale != "no strategies evaluated" {
		t.Fatalf("rationale = %q", d.Rationale)
	}
}

func TestAggregateUnknownPolicy(t *testing.T) {
	_, err := NewAggregator().Aggregate("BTCUSD", 1, []models.Vote{vote("a", models.Buy, 0.5, 1)}, models.Policy("majority"))
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
}

func TestAggregateRationaleNamesEveryStrategy(t *testing.T) {
	votes := []models.Vote{
		vote("sentiment", models.Buy, 0.6, 1.0),
		vote("technical", models.Hold, 0.3, 1.0),
	}
	d, _ := NewAggregator().Aggregate("BTCUSD", 1, votes, models.WeightedVote)
	for _, name := range []string{"sentiment", "technical"} {
		if !strings.Contains(d.Rationale, name) {
			t.Fatalf("rationale %q missing strategy %s", d.Rationale, name)
		}
	}
}

func TestGate(t *testing.T) {
	agg := models.AggregatedDecision{Symbol: "BTCUSD", Direction: models.Buy, Confidence: 0.75}

	out := Gate(agg, 0.7)
	if !out.Executed {
		t.Fatalf("0.75 >= 0.70 should execute: %s", out.Reason)
	}

	agg.Confidence = 0.5
	out = Gate(agg, 0.7)
	if out.Executed {
		t.Fatal("0.5 < 0.7 must not execute")
	}
	if !strings.Contains(out.Reason, "below threshold") || !strings.Contains(out.Reason, "0.20") {
		t.Fatalf("reason should report the confidence gap, got %q", out.Reason)
	}

	agg.Direction = models.Hold
	agg.Confidence = 0.99
	out = Gate(agg, 0.7)
	if out.Executed {
		t.Fatal("HOLD must never execute")
	}
	if out.Reason != "direction was HOLD" {
		t.Fatalf("HOLD reason must be distinguishable, got %q", out.Reason)
	}
}

func TestGateExactThresholdExecutes(t *testing.T) {
	agg := models.AggregatedDecision{Direction: models.Sell, Confidence: 0.7}
	if out := Gate(agg, 0.7); !out.Executed {
		t.Fatal("confidence equal to threshold should execute")
	}
}

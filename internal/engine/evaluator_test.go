package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/strategy"
	"TradeForge/pkg/logger"
)

type stubStrategy struct {
	name  string
	vote  models.Vote
	err   error
	panic bool
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Evaluate(context.Context, string, *models.MarketContext) (models.Vote, error) {
	if s.panic {
		panic("index out of range")
	}
	return s.vote, s.err
}

func testEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}
	return NewEvaluator(log)
}

func entries(ss ...*stubStrategy) []strategy.Entry {
	out := make([]strategy.Entry, len(ss))
	for i, s := range ss {
		out[i] = strategy.Entry{Strategy: s, Weight: 1.0, Enabled: true}
	}
	return out
}

func TestEvaluateKeepsRegistrationOrder(t *testing.T) {
	ev := testEvaluator(t)
	votes := ev.Evaluate(context.Background(), entries(
		&stubStrategy{name: "a", vote: models.Vote{Direction: models.Buy, Confidence: 0.6}},
		&stubStrategy{name: "b", vote: models.Vote{Direction: models.Sell, Confidence: 0.7}},
		&stubStrategy{name: "c", vote: models.Vote{Direction: models.Hold, Confidence: 0.3}},
	), "BTCUSD", &models.MarketContext{Symbol: "BTCUSD", Price: 1})

	want := []string{"a", "b", "c"}
	for i, v := range votes {
		if v.Strategy != want[i] {
			t.Fatalf("vote %d from %s, want %s", i, v.Strategy, want[i])
		}
		if v.Weight != 1.0 {
			t.Fatalf("vote %d weight = %v, want stamped 1.0", i, v.Weight)
		}
	}
}

func TestEvaluateContainsPanic(t *testing.T) {
	ev := testEvaluator(t)
	votes := ev.Evaluate(context.Background(), entries(
		&stubStrategy{name: "healthy", vote: models.Vote{Direction: models.Buy, Confidence: 0.8}},
		&stubStrategy{name: "broken", panic: true},
	), "BTCUSD", &models.MarketContext{Symbol: "BTCUSD", Price: 1})

	if len(votes) != 2 {
		t.Fatalf("want 2 votes, got %d", len(votes))
	}
	if votes[0].Direction != models.Buy {
		t.Fatal("healthy strategy's vote must survive a sibling panic")
	}
	gap := votes[1]
	if gap.Strategy != "broken" || gap.Direction != models.Hold || gap.Confidence != 0 {
		t.Fatalf("panicking strategy should yield HOLD/0.0 gap vote, got %+v", gap)
	}
	if !strings.Contains(gap.Rationale, "data gap") {
		t.Fatalf("gap rationale = %q", gap.Rationale)
	}
}

func TestEvaluateContainsError(t *testing.T) {
	ev := testEvaluator(t)
	votes := ev.Evaluate(context.Background(), entries(
		&stubStrategy{name: "flaky", err: errors.New("upstream feed timeout")},
	), "ETHUSD", &models.MarketContext{Symbol: "ETHUSD", Price: 1})

	v := votes[0]
	if v.Direction != models.Hold || v.Confidence != 0 {
		t.Fatalf("erroring strategy should yield HOLD/0.0, got %s/%v", v.Direction, v.Confidence)
	}
	if !strings.Contains(v.Rationale, "upstream feed timeout") {
		t.Fatalf("rationale should carry the cause, got %q", v.Rationale)
	}
}

func TestEvaluateClampsConfidence(t *testing.T) {
	ev := testEvaluator(t)
	votes := ev.Evaluate(context.Background(), entries(
		&stubStrategy{name: "hot", vote: models.Vote{Direction: models.Buy, Confidence: 1.7}},
		&stubStrategy{name: "cold", vote: models.Vote{Direction: models.Sell, Confidence: -0.2}},
	), "BTCUSD", &models.MarketContext{Symbol: "BTCUSD", Price: 1})

	if votes[0].Confidence != 1 {
		t.Fatalf("confidence should clamp to 1, got %v", votes[0].Confidence)
	}
	if votes[1].Confidence != 0 {
		t.Fatalf("confidence should clamp to 0, got %v", votes[1].Confidence)
	}
}

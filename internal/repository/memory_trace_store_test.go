package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"
)

func trace(id, symbol string, dir models.Direction, votes ...models.Vote) *models.DecisionTrace {
	return &models.DecisionTrace{
		Decision: models.AggregatedDecision{
			ID:         id,
			Symbol:     symbol,
			Direction:  dir,
			Confidence: 0.8,
			Votes:      votes,
			Policy:     models.WeightedVote,
			ComputedAt: time.Now().UTC(),
		},
		Executed:  dir != models.Hold,
		Threshold: 0.7,
	}
}

func TestMemoryStoreLatestAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTraceStore()

	if _, err := s.LatestDecision(ctx, "BTCUSD"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("empty store should report not found, got %v", err)
	}

	for _, id := range []string{"d1", "d2", "d3"} {
		if err := s.AppendTrace(ctx, trace(id, "BTCUSD", models.Buy)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AppendTrace(ctx, trace("d4", "ETHUSD", models.Sell)); err != nil {
		t.Fatal(err)
	}

	latest, err := s.LatestDecision(ctx, "BTCUSD")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Decision.ID != "d3" {
		t.Fatalf("latest = %s, want d3", latest.Decision.ID)
	}

	hist, err := s.History(ctx, "BTCUSD", time.Time{}, time.Time{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || hist[0].Decision.ID != "d3" || hist[1].Decision.ID != "d2" {
		t.Fatalf("history should be newest-first with limit, got %+v", hist)
	}
}

func TestMemoryStoreTradeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTraceStore()

	if err := s.AppendTrace(ctx, trace("d1", "BTCUSD", models.Buy)); err != nil {
		t.Fatal(err)
	}

	rec := &models.TradeRecord{
		ID:         "t1",
		DecisionID: "d1",
		Symbol:     "BTCUSD",
		Action:     models.Buy,
		Amount:     decimal.RequireFromString("0.1"),
		Price:      decimal.RequireFromString("50000"),
		GrossValue: decimal.RequireFromString("5000"),
		Fee:        decimal.RequireFromString("13"),
		NetValue:   decimal.RequireFromString("5013"),
		ExecutedAt: time.Now().UTC(),
	}
	if err := s.AppendTrade(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.Trades(ctx, "BTCUSD", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 trade, got %d", len(got))
	}
	back := got[0]
	if !back.Amount.Equal(rec.Amount) || !back.Price.Equal(rec.Price) || !back.Fee.Equal(rec.Fee) {
		t.Fatalf("trade did not round-trip: %+v", back)
	}
	if back.DecisionID != "d1" {
		t.Fatalf("decision reference lost: %q", back.DecisionID)
	}
}

func TestMemoryStoreRejectsOrphanTrade(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTraceStore()

	rec := &models.TradeRecord{ID: "t1", DecisionID: "ghost", Symbol: "BTCUSD"}
	err := s.AppendTrade(ctx, rec)
	var refErr *models.ReferentialIntegrityError
	if !errors.As(err, &refErr) {
		t.Fatalf("want ReferentialIntegrityError, got %v", err)
	}
	if refErr.DecisionID != "ghost" || refErr.TradeID != "t1" {
		t.Fatalf("error detail wrong: %+v", refErr)
	}

	got, _ := s.Trades(ctx, "", 10)
	if len(got) != 0 {
		t.Fatal("rejected trade must not be stored")
	}
}

func TestStrategyStatsAndAgreement(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTraceStore()

	mk := func(id string, final models.Direction, sentDir, techDir models.Direction) *models.DecisionTrace {
		return trace(id, "BTCUSD", final,
			models.Vote{Strategy: "sentiment", Direction: sentDir, Confidence: 0.6, Weight: 1},
			models.Vote{Strategy: "technical", Direction: techDir, Confidence: 0.4, Weight: 1},
		)
	}
	// sentiment matches the final direction twice out of three; the two
	// strategies agree with each other once.
	for _, tr := range []*models.DecisionTrace{
		mk("d1", models.Buy, models.Buy, models.Buy),
		mk("d2", models.Buy, models.Buy, models.Hold),
		mk("d3", models.Hold, models.Sell, models.Hold),
	} {
		if err := s.AppendTrace(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.StrategyStats(ctx, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sent := stats["sentiment"]
	if sent.Total != 3 || sent.BuyCount != 2 || sent.SellCount != 1 {
		t.Fatalf("sentiment counts wrong: %+v", sent)
	}
	if sent.AgreementRate < 0.66 || sent.AgreementRate > 0.67 {
		t.Fatalf("sentiment agreement = %v, want 2/3", sent.AgreementRate)
	}
	if sent.ActionRate != 1.0 {
		t.Fatalf("sentiment action rate = %v, want 1.0", sent.ActionRate)
	}
	tech := stats["technical"]
	if tech.HoldCount != 2 || tech.BuyCount != 1 {
		t.Fatalf("technical counts wrong: %+v", tech)
	}

	matrix, err := s.Agreement(ctx, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if matrix["sentiment"]["sentiment"] != 1.0 {
		t.Fatal("self-agreement must be 1.0")
	}
	got := matrix["sentiment"]["technical"]
	if got < 0.33 || got > 0.34 {
		t.Fatalf("pairwise agreement = %v, want 1/3", got)
	}
	if matrix["sentiment"]["technical"] != matrix["technical"]["sentiment"] {
		t.Fatal("agreement matrix should be symmetric")
	}
}

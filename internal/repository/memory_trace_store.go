package repository

import (
	"context"
	"sync"
	"time"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"
)

// MemoryTraceStore is the in-process TraceStore used in tests and when the
// engine runs without a ClickHouse backend. Semantics match the ClickHouse
// store, including referential-integrity rejection of orphan trades.
type MemoryTraceStore struct {
	mu        sync.RWMutex
	traces    map[string][]models.DecisionTrace // by symbol, append order
	trades    []models.TradeRecord
	decisions map[string]struct{} // known decision ids
}

func NewMemoryTraceStore() *MemoryTraceStore {
	return &MemoryTraceStore{
		traces:    make(map[string][]models.DecisionTrace),
		decisions: make(map[string]struct{}),
	}
}

func (s *MemoryTraceStore) Init(context.Context) error { return nil }

func (s *MemoryTraceStore) AppendTrace(_ context.Context, tr *models.DecisionTrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol := tr.Decision.Symbol
	s.traces[symbol] = append(s.traces[symbol], *tr)
	s.decisions[tr.Decision.ID] = struct{}{}
	return nil
}

func (s *MemoryTraceStore) AppendTrade(_ context.Context, rec *models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decisions[rec.DecisionID]; !ok {
		return &models.ReferentialIntegrityError{DecisionID: rec.DecisionID, TradeID: rec.ID}
	}
	s.trades = append(s.trades, *rec)
	return nil
}

func (s *MemoryTraceStore) LatestDecision(_ context.Context, symbol string) (*models.DecisionTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.traces[symbol]
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	tr := list[len(list)-1]
	return &tr, nil
}

func (s *MemoryTraceStore) History(_ context.Context, symbol string, from, to time.Time, limit int) ([]models.DecisionTrace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.traces[symbol]
	out := make([]models.DecisionTrace, 0, limit)
	// newest first
	for i := len(list) - 1; i >= 0; i-- {
		at := list[i].Decision.ComputedAt
		if !from.IsZero() && at.Before(from) {
			continue
		}
		if !to.IsZero() && at.After(to) {
			continue
		}
		out = append(out, list[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryTraceStore) Trades(_ context.Context, symbol string, limit int) ([]models.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TradeRecord, 0, limit)
	for i := len(s.trades) - 1; i >= 0; i-- {
		if symbol != "" && s.trades[i].Symbol != symbol {
			continue
		}
		out = append(out, s.trades[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryTraceStore) StrategyStats(_ context.Context, lookback time.Duration) (map[string]models.StrategyStats, error) {
	return computeStrategyStats(s.window(lookback)), nil
}

func (s *MemoryTraceStore) Agreement(_ context.Context, lookback time.Duration) (models.AgreementMatrix, error) {
	return computeAgreement(s.window(lookback)), nil
}

func (s *MemoryTraceStore) window(lookback time.Duration) []models.DecisionTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cutoff time.Time
	if lookback > 0 {
		cutoff = time.Now().UTC().Add(-lookback)
	}
	var out []models.DecisionTrace
	for _, list := range s.traces {
		for _, tr := range list {
			if cutoff.IsZero() || !tr.Decision.ComputedAt.Before(cutoff) {
				out = append(out, tr)
			}
		}
	}
	return out
}

func (s *MemoryTraceStore) Health(context.Context) error { return nil }

func (s *MemoryTraceStore) Close() error { return nil }

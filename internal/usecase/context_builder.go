package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"TradeForge/internal/domain/models"
	svccache "TradeForge/internal/service/cache"
	"TradeForge/internal/symbol"
)

const (
	// maxHistory bounds the per-symbol rolling windows; the longest indicator
	// lookback is the 50-period SMA.
	maxHistory   = 200
	maxHeadlines = 20

	headlineDedupTTL = 6 * time.Hour
)

// ContextBuilder folds the tick stream and incoming headlines into the
// per-symbol MarketContext that strategies consume. It is the pipeline's
// downstream processor; the scheduler reads snapshots from it once per cycle.
type ContextBuilder struct {
	mu    sync.RWMutex
	state map[string]*symbolState
	dedup svccache.BytesCache
}

type symbolState struct {
	price      float64
	volume     float64
	prices     []float64 // oldest first
	volumes    []float64
	headlines  []string
	observedAt time.Time
}

func NewContextBuilder(dedup svccache.BytesCache) *ContextBuilder {
	if dedup == nil {
		dedup = svccache.NewTTLCache()
	}
	return &ContextBuilder{
		state: make(map[string]*symbolState),
		dedup: dedup,
	}
}

// Process ingests one tick. Symbols are normalized here, at the edge; a tick
// for an unrecognized symbol is an error the pipeline counts and drops.
func (b *ContextBuilder) Process(_ context.Context, t *models.Tick) error {
	canonical, err := symbol.Normalize(t.Symbol)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stateFor(canonical)
	st.price = t.Price
	st.volume = t.Volume
	st.prices = appendBounded(st.prices, t.Price)
	st.volumes = appendBounded(st.volumes, t.Volume)
	if t.Timestamp > 0 {
		st.observedAt = time.Unix(t.Timestamp, 0).UTC()
	} else {
		st.observedAt = time.Now().UTC()
	}
	return nil
}

// AddHeadline attaches a news headline to a symbol's context. Duplicate
// headlines within the dedup TTL are silently dropped so repeated polls of
// the same feed do not double-count sentiment mentions.
func (b *ContextBuilder) AddHeadline(sym, headline string) error {
	canonical, err := symbol.Normalize(sym)
	if err != nil {
		return err
	}
	if headline == "" {
		return nil
	}

	sum := sha256.Sum256([]byte(canonical + "|" + headline))
	key := "headline:" + hex.EncodeToString(sum[:])
	if _, seen, err := b.dedup.GetBytes(key); err == nil && seen {
		return nil
	}
	_ = b.dedup.SetBytes(key, []byte{1}, headlineDedupTTL)

	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stateFor(canonical)
	st.headlines = append(st.headlines, headline)
	if len(st.headlines) > maxHeadlines {
		st.headlines = st.headlines[len(st.headlines)-maxHeadlines:]
	}
	return nil
}

// Snapshot returns an independent copy of the current context for a
// canonical symbol. Strategies can hold it across the whole evaluation
// without seeing mid-cycle mutation.
func (b *ContextBuilder) Snapshot(canonical string) *models.MarketContext {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.state[canonical]
	if !ok {
		return &models.MarketContext{Symbol: canonical, ObservedAt: time.Now().UTC()}
	}
	return &models.MarketContext{
		Symbol:        canonical,
		Price:         st.price,
		Volume:        st.volume,
		PriceHistory:  append([]float64(nil), st.prices...),
		VolumeHistory: append([]float64(nil), st.volumes...),
		Headlines:     append([]string(nil), st.headlines...),
		ObservedAt:    st.observedAt,
	}
}

func (b *ContextBuilder) stateFor(canonical string) *symbolState {
	st, ok := b.state[canonical]
	if !ok {
		st = &symbolState{}
		b.state[canonical] = st
	}
	return st
}

func appendBounded(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > maxHistory {
		xs = xs[len(xs)-maxHistory:]
	}
	return xs
}

package paper

import (
	"sort"
	"sync"

	"TradeForge/internal/domain/models"
)

// Ledger owns the simulated positions, keyed by canonical symbol. It is
// injected into the trader rather than shared as a package singleton, so
// every test and every run gets its own isolated state. Writes to one
// symbol serialize on that symbol's lock; different symbols do not block
// each other.
type Ledger struct {
	mu        sync.Mutex
	positions map[string]models.Position
	locks     map[string]*sync.Mutex
}

func NewLedger() *Ledger {
	return &Ledger{
		positions: make(map[string]models.Position),
		locks:     make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) symbolLock(symbol string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[symbol]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[symbol] = lk
	}
	return lk
}

// Get returns a copy of the open position for symbol, if any.
func (l *Ledger) Get(symbol string) (models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[symbol]
	return p.Clone(), ok
}

// All returns copies of every open position, sorted by symbol.
func (l *Ledger) All() []models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (l *Ledger) put(p models.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[p.Symbol] = p
}

func (l *Ledger) remove(symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.positions, symbol)
}

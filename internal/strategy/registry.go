package strategy

import (
	"fmt"
	"sync"

	"TradeForge/internal/domain/service"
)

// Entry is a registered strategy plus its live configuration.
type Entry struct {
	Strategy service.Strategy
	Weight   float64
	Enabled  bool
}

// Registry maps strategy names to implementations. Registration order is
// preserved and meaningful: aggregation tie-breaks resolve in favor of the
// earliest-registered strategy. The registry is populated at configuration
// load time; the engine only ever talks to the Strategy interface.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byName map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Entry)}
}

// Register adds a strategy with its default weight. Duplicate names are a
// programming error and rejected.
func (r *Registry) Register(s service.Strategy, weight float64) error {
	if s == nil || s.Name() == "" {
		return fmt.Errorf("strategy must have a name")
	}
	if weight < 0 {
		return fmt.Errorf("strategy %s: negative weight %v", s.Name(), weight)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[s.Name()]; ok {
		return fmt.Errorf("strategy %s already registered", s.Name())
	}
	r.order = append(r.order, s.Name())
	r.byName[s.Name()] = &Entry{Strategy: s, Weight: weight, Enabled: true}
	return nil
}

// Configure updates enable flag and weight for a registered strategy.
// Called between cycles when configuration is reloaded, never mid-cycle.
func (r *Registry) Configure(name string, enabled bool, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("strategy %s: negative weight %v", name, weight)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("strategy %s not registered", name)
	}
	e.Enabled = enabled
	e.Weight = weight
	return nil
}

// Enabled returns the enabled strategies in registration order.
func (r *Registry) Enabled() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		if e := r.byName[name]; e.Enabled {
			out = append(out, *e)
		}
	}
	return out
}

// Names returns all registered strategy names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

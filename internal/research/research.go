// Package research defines unlockable researches and the unlock service.
package research

import (
	"fmt"
	"sync"

	"github.com/emberhollow/arcanum/internal/key"
)

// MaxCost is the largest accepted research cost (in levels).
const MaxCost = 10000

// Research is an unlockable with an associated cost. The cost is
// refreshed from the researches config document on every reload.
type Research struct {
	key  key.NamespacedKey
	name string

	mu   sync.RWMutex
	cost int
}

// New creates a research with the given key, display name and initial cost.
func New(k key.NamespacedKey, name string, cost int) (*Research, error) {
	r := &Research{key: k, name: name}
	if err := r.SetCost(cost); err != nil {
		return nil, fmt.Errorf("research %s: %w", k, err)
	}
	return r, nil
}

// MustNew is like New but panics on invalid input.
// Intended for compile-time constant catalogs.
func MustNew(k key.NamespacedKey, name string, cost int) *Research {
	r, err := New(k, name, cost)
	if err != nil {
		panic(err)
	}
	return r
}

// Key returns the research's namespaced key.
func (r *Research) Key() key.NamespacedKey {
	return r.key
}

// Name returns the research's display name.
func (r *Research) Name() string {
	return r.name
}

// Cost returns the current unlock cost.
func (r *Research) Cost() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cost
}

// SetCost updates the unlock cost.
// Returns an error for negative or absurdly large costs.
func (r *Research) SetCost(cost int) error {
	if cost < 0 || cost > MaxCost {
		return fmt.Errorf("cost %d outside range [0, %d]", cost, MaxCost)
	}
	r.mu.Lock()
	r.cost = cost
	r.mu.Unlock()
	return nil
}

// String implements fmt.Stringer for log output.
func (r *Research) String() string {
	return fmt.Sprintf("%s (%q)", r.key, r.name)
}

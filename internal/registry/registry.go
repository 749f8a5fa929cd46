// Package registry provides the in-memory registry of items and researches.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/emberhollow/arcanum/internal/item"
	"github.com/emberhollow/arcanum/internal/key"
	"github.com/emberhollow/arcanum/internal/research"
)

// Registry stores registered items and researches.
// Implementations must be thread-safe for concurrent access.
type Registry interface {
	// RegisterItem adds an item. Returns an error if an item with the
	// same key already exists.
	RegisterItem(it *item.Item) error

	// RegisterResearch adds a research. Returns an error if a research
	// with the same key already exists.
	RegisterResearch(r *research.Research) error

	// Item retrieves an item by key.
	Item(k key.NamespacedKey) (*item.Item, bool)

	// Research retrieves a research by key.
	Research(k key.NamespacedKey) (*research.Research, bool)

	// AllItems returns every registered item, sorted by key.
	AllItems() []*item.Item

	// AllResearches returns every registered research, sorted by key.
	AllResearches() []*research.Research

	// Counts returns the number of registered items and researches.
	Counts() (items, researches int)
}

// inMemoryRegistry is a thread-safe in-memory implementation of Registry.
type inMemoryRegistry struct {
	mu         sync.RWMutex
	items      map[key.NamespacedKey]*item.Item
	researches map[key.NamespacedKey]*research.Research
}

// NewInMemory creates an empty in-memory Registry.
func NewInMemory() Registry {
	return &inMemoryRegistry{
		items:      make(map[key.NamespacedKey]*item.Item),
		researches: make(map[key.NamespacedKey]*research.Research),
	}
}

// RegisterItem adds an item.
func (r *inMemoryRegistry) RegisterItem(it *item.Item) error {
	if it == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if !it.Key().IsValid() {
		return fmt.Errorf("item has invalid key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[it.Key()]; exists {
		return fmt.Errorf("item %s already registered", it.Key())
	}
	r.items[it.Key()] = it
	return nil
}

// RegisterResearch adds a research.
func (r *inMemoryRegistry) RegisterResearch(res *research.Research) error {
	if res == nil {
		return fmt.Errorf("research cannot be nil")
	}
	if !res.Key().IsValid() {
		return fmt.Errorf("research has invalid key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.researches[res.Key()]; exists {
		return fmt.Errorf("research %s already registered", res.Key())
	}
	r.researches[res.Key()] = res
	return nil
}

// Item retrieves an item by key.
func (r *inMemoryRegistry) Item(k key.NamespacedKey) (*item.Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[k]
	return it, ok
}

// Research retrieves a research by key.
func (r *inMemoryRegistry) Research(k key.NamespacedKey) (*research.Research, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.researches[k]
	return res, ok
}

// AllItems returns every registered item sorted by key, so reload
// processing and logs are deterministic.
func (r *inMemoryRegistry) AllItems() []*item.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*item.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// AllResearches returns every registered research sorted by key.
func (r *inMemoryRegistry) AllResearches() []*research.Research {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*research.Research, 0, len(r.researches))
	for _, res := range r.researches {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// Counts returns the number of registered items and researches.
func (r *inMemoryRegistry) Counts() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), len(r.researches)
}

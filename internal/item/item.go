// Package item defines registered items and their configurable settings.
package item

import (
	"sync"

	"github.com/emberhollow/arcanum/internal/key"
	"github.com/emberhollow/arcanum/internal/log"
)

// Item is a registered plugin item. Its enabled state and settings are
// refreshed from the items config document on every reload.
type Item struct {
	key  key.NamespacedKey
	name string

	mu       sync.RWMutex
	enabled  bool
	settings []Setting
}

// New creates an item with the given key and display name.
// Items start enabled; reload applies the configured state.
func New(k key.NamespacedKey, name string, settings ...Setting) *Item {
	return &Item{
		key:      k,
		name:     name,
		enabled:  true,
		settings: settings,
	}
}

// Key returns the item's namespaced key.
func (it *Item) Key() key.NamespacedKey {
	return it.key
}

// Name returns the item's display name.
func (it *Item) Name() string {
	return it.name
}

// Enabled reports whether the item is currently enabled.
func (it *Item) Enabled() bool {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.enabled
}

// SetEnabled updates the item's enabled state.
func (it *Item) SetEnabled(enabled bool) {
	it.mu.Lock()
	it.enabled = enabled
	it.mu.Unlock()
}

// Settings returns the item's settings in registration order.
func (it *Item) Settings() []Setting {
	it.mu.RLock()
	defer it.mu.RUnlock()
	out := make([]Setting, len(it.settings))
	copy(out, it.settings)
	return out
}

// AddSetting appends a setting to the item.
func (it *Item) AddSetting(s Setting) {
	it.mu.Lock()
	it.settings = append(it.settings, s)
	it.mu.Unlock()
}

// Setting returns the setting with the given key, if present.
func (it *Item) Setting(settingKey string) (Setting, bool) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	for _, s := range it.settings {
		if s.Key() == settingKey {
			return s, true
		}
	}
	return nil, false
}

// Error logs a problem concerning this item with its key attached.
func (it *Item) Error(msg string, err error) {
	log.ErrorErr(log.CatItem, msg, err, "item", it.key.String())
}

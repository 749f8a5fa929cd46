// Package permission computes and caches per-item permission nodes.
package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/emberhollow/arcanum/internal/cachemanager"
	"github.com/emberhollow/arcanum/internal/item"
	"github.com/emberhollow/arcanum/internal/log"
)

// nodeTTL bounds how long a cached node may outlive its last refresh.
// Reload refreshes every node anyway; the TTL only covers items queried
// after their cache entry was evicted.
const nodeTTL = 30 * time.Minute

// Source provides access to the items config document.
// *config.Document satisfies it.
type Source interface {
	Get(path string) any
	IsSet(path string) bool
	SetDefault(path string, value any)
}

// Service resolves the permission node required to use an item.
// An empty node means no permission is required.
type Service struct {
	doc   Source
	cache *cachemanager.InMemoryCacheManager[string, string]
}

// NewService creates a permission service reading from the items document.
func NewService(doc Source) *Service {
	return &Service{
		doc: doc,
		cache: cachemanager.NewInMemoryCacheManager[string, string](
			"permission-nodes", nodeTTL, cachemanager.DefaultCleanupInterval),
	}
}

// Update recomputes the cached permission node for the item from the
// items document. When warn is set, items without a configured node are
// logged. Called for every item on reload.
func (s *Service) Update(it *item.Item, warn bool) error {
	node, err := s.resolve(it)
	if err != nil {
		return err
	}

	s.cache.Set(context.Background(), it.Key().String(), node, nodeTTL)

	if warn && node == "" {
		log.Warn(log.CatPerms, "item has no permission node configured",
			"item", it.Key().String())
	}
	return nil
}

// Node returns the permission node required to use the item.
// Returns "" when no permission is required.
func (s *Service) Node(it *item.Item) (string, error) {
	if node, found := s.cache.Get(context.Background(), it.Key().String()); found {
		return node, nil
	}

	// Cache miss: resolve from the document and repopulate.
	node, err := s.resolve(it)
	if err != nil {
		return "", err
	}
	s.cache.Set(context.Background(), it.Key().String(), node, nodeTTL)
	return node, nil
}

// Invalidate drops cached nodes for the given items.
func (s *Service) Invalidate(items ...*item.Item) {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key().String())
	}
	_ = s.cache.Delete(context.Background(), keys...)
}

func (s *Service) resolve(it *item.Item) (string, error) {
	path := it.Key().String() + ".permission"
	if !s.doc.IsSet(path) {
		s.doc.SetDefault(path, "")
		return "", nil
	}
	node, ok := s.doc.Get(path).(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, found %T", path, s.doc.Get(path))
	}
	return node, nil
}

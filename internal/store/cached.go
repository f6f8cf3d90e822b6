package store

import (
	"context"
	"time"

	"github.com/ppiankov/infodemic/internal/cache"
	"github.com/ppiankov/infodemic/internal/model"
)

// DefaultCatalogTTL bounds how long catalog lookups stay cached
const DefaultCatalogTTL = 10 * time.Minute

// CachedCatalog serves event types and character bias labels from memory.
// Cooldown-bearing reads (relevant actors) always hit the database.
type CachedCatalog struct {
	*Store
	eventTypes *cache.MemoryCache[model.EventType]
	biases     *cache.MemoryCache[[]string]
}

// NewCachedCatalog wraps a store with catalog caches
func NewCachedCatalog(s *Store, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CachedCatalog{
		Store:      s,
		eventTypes: cache.NewMemoryCache[model.EventType](ttl, 2*ttl),
		biases:     cache.NewMemoryCache[[]string](ttl, 2*ttl),
	}
}

// GetEventType returns an event type, caching its catalog fields.
// LastUsedAt is dropped from the cached copy because persisting events moves it.
func (c *CachedCatalog) GetEventType(ctx context.Context, id int64) (model.EventType, error) {
	key := cache.Key("event_type", id)
	if et, ok := c.eventTypes.Get(key); ok {
		return et, nil
	}
	et, err := c.Store.GetEventType(ctx, id)
	if err != nil {
		return model.EventType{}, err
	}
	et.LastUsedAt = nil
	c.eventTypes.Set(key, et, 0)
	return et, nil
}

// CharacterBiases returns a character's bias labels from cache when present
func (c *CachedCatalog) CharacterBiases(ctx context.Context, characterID int64) ([]string, error) {
	key := cache.Key("character_biases", characterID)
	if biases, ok := c.biases.Get(key); ok {
		return append([]string(nil), biases...), nil
	}
	biases, err := c.Store.CharacterBiases(ctx, characterID)
	if err != nil {
		return nil, err
	}
	c.biases.Set(key, biases, 0)
	return append([]string(nil), biases...), nil
}

// Invalidate drops every cached entry, e.g. after reseeding
func (c *CachedCatalog) Invalidate() {
	c.eventTypes.Clear()
	c.biases.Clear()
}

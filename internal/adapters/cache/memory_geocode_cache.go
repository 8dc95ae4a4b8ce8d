package cache

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryGeocodeCache is a process-wide, bounded address -> coordinate cache.
// Entries are evicted least-recently-used beyond maxEntries and expire after ttl.
type MemoryGeocodeCache struct {
	lru *expirable.LRU[string, domain.Coordinates]
}

func NewMemoryGeocodeCache(maxEntries int, ttl time.Duration) *MemoryGeocodeCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &MemoryGeocodeCache{lru: expirable.NewLRU[string, domain.Coordinates](maxEntries, nil, ttl)}
}

func (m *MemoryGeocodeCache) Get(_ context.Context, address string) (domain.Coordinates, bool, error) {
	c, ok := m.lru.Get(address)
	return c, ok, nil
}

func (m *MemoryGeocodeCache) Put(_ context.Context, address string, c domain.Coordinates) error {
	m.lru.Add(address, c)
	return nil
}

func (m *MemoryGeocodeCache) Len() int { return m.lru.Len() }

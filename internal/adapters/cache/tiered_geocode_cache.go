package cache

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/ports"

	"go.uber.org/zap"
)

// TieredGeocodeCache fronts a shared persistent cache with a local one.
// Hits in the persistent tier are copied into the local tier.
type TieredGeocodeCache struct {
	local      ports.GeocodeCache
	persistent ports.GeocodeCache
	log        *zap.Logger
}

func NewTieredGeocodeCache(local, persistent ports.GeocodeCache, log *zap.Logger) *TieredGeocodeCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &TieredGeocodeCache{local: local, persistent: persistent, log: log}
}

func (t *TieredGeocodeCache) Get(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	if c, ok, err := t.local.Get(ctx, address); err == nil && ok {
		return c, true, nil
	}

	c, ok, err := t.persistent.Get(ctx, address)
	if err != nil || !ok {
		return c, ok, err
	}

	if err := t.local.Put(ctx, address, c); err != nil {
		t.log.Warn("geocode local cache backfill failed", zap.String("address", address), zap.Error(err))
	}
	return c, true, nil
}

// Put writes through both tiers; a persistent failure is returned after the
// local tier has been updated.
func (t *TieredGeocodeCache) Put(ctx context.Context, address string, c domain.Coordinates) error {
	if err := t.local.Put(ctx, address, c); err != nil {
		t.log.Warn("geocode local cache write failed", zap.String("address", address), zap.Error(err))
	}
	return t.persistent.Put(ctx, address, c)
}

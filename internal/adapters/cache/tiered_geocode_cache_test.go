package cache

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredGeocodeCacheBackfillsLocal(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniredis(t)

	local := NewMemoryGeocodeCache(10, time.Hour)
	shared := NewRedisGeocodeCache(client, time.Hour)
	c := NewTieredGeocodeCache(local, shared, nil)

	want := domain.Coordinates{Lat: 43.77, Lon: 11.25}
	require.NoError(t, shared.Put(ctx, "Firenze", want))

	got, ok, err := c.Get(ctx, "Firenze")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	got, ok, _ = local.Get(ctx, "Firenze")
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTieredGeocodeCachePutWritesBothTiers(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniredis(t)

	local := NewMemoryGeocodeCache(10, time.Hour)
	shared := NewRedisGeocodeCache(client, time.Hour)
	c := NewTieredGeocodeCache(local, shared, nil)

	require.NoError(t, c.Put(ctx, "Bari", domain.Coordinates{Lat: 41.12, Lon: 16.87}))

	_, ok, _ := local.Get(ctx, "Bari")
	assert.True(t, ok)
	_, ok, err := shared.Get(ctx, "Bari")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTieredGeocodeCacheHonoursPersistentTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	persistent := NewSqliteGeocodeCache(newSqliteCacheDB(t), time.Hour)
	persistent.now = func() time.Time { return now }

	c := NewTieredGeocodeCache(NewMemoryGeocodeCache(10, time.Hour), persistent, nil)
	require.NoError(t, c.Put(ctx, "Milano", domain.Coordinates{Lat: 45.46, Lon: 9.19}))

	// a fresh local tier stands in for an evicted or expired LRU entry
	now = now.Add(2 * time.Hour)
	c = NewTieredGeocodeCache(NewMemoryGeocodeCache(10, time.Hour), persistent, nil)

	_, ok, err := c.Get(ctx, "Milano")
	require.NoError(t, err)
	assert.False(t, ok)
}

package cache

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGeocodeCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryGeocodeCache(2, time.Hour)

	require.NoError(t, c.Put(ctx, "a", domain.Coordinates{Lat: 1, Lon: 1}))
	require.NoError(t, c.Put(ctx, "b", domain.Coordinates{Lat: 2, Lon: 2}))

	// touch a so b becomes the eviction candidate
	_, ok, _ := c.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, c.Put(ctx, "c", domain.Coordinates{Lat: 3, Lon: 3}))

	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok)
	got, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, domain.Coordinates{Lat: 1, Lon: 1}, got)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryGeocodeCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryGeocodeCache(10, 20*time.Millisecond)

	require.NoError(t, c.Put(ctx, "a", domain.Coordinates{Lat: 1, Lon: 1}))
	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryGeocodeCacheKeysAreExact(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryGeocodeCache(10, time.Hour)

	require.NoError(t, c.Put(ctx, "Via Roma 1, Milano", domain.Coordinates{Lat: 1, Lon: 1}))

	_, ok, _ := c.Get(ctx, "via roma 1, milano")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "Via Roma 1,  Milano")
	assert.False(t, ok)
}

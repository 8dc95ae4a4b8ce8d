package cache

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisGeocodeCacheRoundTrip(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := NewRedisGeocodeCache(client, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "Via Roma 1, Milano")
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.Coordinates{Lat: 45.4642, Lon: 9.19}
	require.NoError(t, c.Put(ctx, "Via Roma 1, Milano", want))

	got, ok, err := c.Get(ctx, "Via Roma 1, Milano")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	assert.True(t, mr.Exists("geocode:Via Roma 1, Milano"))
	assert.Equal(t, time.Hour, mr.TTL("geocode:Via Roma 1, Milano"))
}

func TestRedisGeocodeCacheExpiry(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := NewRedisGeocodeCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "Torino", domain.Coordinates{Lat: 45.07, Lon: 7.68}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "Torino")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisGeocodeCacheCorruptEntry(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := NewRedisGeocodeCache(client, 0)

	require.NoError(t, mr.Set("geocode:Roma", "not json"))

	_, ok, err := c.Get(context.Background(), "Roma")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisGeocodeCacheUnavailable(t *testing.T) {
	mr, client := setupMiniredis(t)
	c := NewRedisGeocodeCache(client, 0)
	mr.Close()

	_, _, err := c.Get(context.Background(), "Roma")
	assert.Error(t, err)
	assert.Error(t, c.Put(context.Background(), "Roma", domain.Coordinates{}))
}

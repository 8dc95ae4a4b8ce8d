package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisGeocodePrefix = "geocode:"

type redisCoordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RedisGeocodeCache shares geocoding results between service instances.
type RedisGeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{client: client, ttl: ttl}
}

func (r *RedisGeocodeCache) Get(ctx context.Context, address string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.Get")(&err)

	if r.client == nil {
		return domain.Coordinates{}, false, errors.New("geocode cache: redis client is nil")
	}

	raw, err := r.client.Get(ctx, redisGeocodePrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("get geocode cache: redis get: %w", err)
	}

	var rc redisCoordinates
	if err := json.Unmarshal(raw, &rc); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("get geocode cache: decode %q: %w", address, err)
	}

	return domain.Coordinates{Lat: rc.Lat, Lon: rc.Lon}, true, nil
}

func (r *RedisGeocodeCache) Put(ctx context.Context, address string, c domain.Coordinates) error {
	if r.client == nil {
		return errors.New("geocode cache: redis client is nil")
	}

	payload, err := json.Marshal(redisCoordinates{Lat: c.Lat, Lon: c.Lon})
	if err != nil {
		return fmt.Errorf("insert geocode cache: encode: %w", err)
	}

	if err := r.client.Set(ctx, redisGeocodePrefix+address, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("insert geocode cache: redis set %q: %w", address, err)
	}
	return nil
}

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/obs"
	"time"
)

// SQLGeocodeCache is a PostgreSQL-backed cache mapping addresses to coordinates.
// Entries older than TTL are invisible to Get and removed on Put.
type SQLGeocodeCache struct {
	DB  *sql.DB
	TTL time.Duration
	now func() time.Time
}

// NewSQLGeocodeCache returns a cache whose entries live for ttl; zero keeps them forever.
func NewSQLGeocodeCache(db *sql.DB, ttl time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, TTL: ttl, now: time.Now}
}

func (s *SQLGeocodeCache) Get(ctx context.Context, address string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.sql.Get")(&err)

	if s.DB == nil {
		return domain.Coordinates{}, false, errors.New("geocode cache: db is nil")
	}

	q := `
	SELECT lat, lon
    FROM geocode_cache
    WHERE address = $1
      AND cached_at > $2;
	`

	var lat, lon float64
	err = s.DB.QueryRowContext(ctx, q, address, expiryCutoff(s.clock(), s.TTL)).Scan(&lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	return domain.Coordinates{Lat: lat, Lon: lon}, true, nil
}

func (s *SQLGeocodeCache) Put(ctx context.Context, address string, c domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if address == "" {
		return errors.New("insert geocode cache: empty address key")
	}

	now := s.clock()
	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lon, cached_at)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		cached_at = EXCLUDED.cached_at;
	`, address, c.Lat, c.Lon, now.Unix())
	if err != nil {
		return fmt.Errorf("insert geocode cache address=%q: %w", address, err)
	}

	if s.TTL > 0 {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE cached_at <= $1;`, expiryCutoff(now, s.TTL)); err != nil {
			return fmt.Errorf("prune geocode cache: %w", err)
		}
	}

	return nil
}

func (s *SQLGeocodeCache) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// expiryCutoff is the newest cached_at (unix seconds) that counts as expired.
// Without a TTL nothing expires.
func expiryCutoff(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(-ttl).Unix()
}

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

// SQLite backed cache mapping address strings to geographic coordinates.
// Keys are stored exactly as given; no normalization is applied.
// Entries older than TTL are invisible to Get and removed on Put.
type SqliteGeocodeCache struct {
	DB  *sql.DB
	TTL time.Duration
	now func() time.Time
}

// NewSqliteGeocodeCache returns a cache whose entries live for ttl; zero keeps them forever.
func NewSqliteGeocodeCache(db *sql.DB, ttl time.Duration) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db, TTL: ttl, now: time.Now}
}

func (s *SqliteGeocodeCache) Get(ctx context.Context, address string) (_ domain.Coordinates, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return domain.Coordinates{}, false, errors.New("geocode cache: db is nil")
	}

	var lat, lon float64
	err = s.DB.QueryRowContext(ctx, `
	SELECT
        lat,
        lon
    FROM geocode_cache
    WHERE address = ?
      AND cached_at > ?;
	`, address, expiryCutoff(s.clock(), s.TTL)).Scan(&lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	return domain.Coordinates{Lat: lat, Lon: lon}, true, nil
}

func (s *SqliteGeocodeCache) Put(ctx context.Context, address string, c domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if address == "" {
		return errors.New("insert geocode cache: empty address key")
	}

	now := s.clock()
	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (
        address,
        lat,
        lon,
        cached_at
    )
    VALUES (?, ?, ?, ?);
	`, address, c.Lat, c.Lon, now.Unix())
	if err != nil {
		return fmt.Errorf("insert geocode cache address=%q: %w", address, err)
	}

	if s.TTL > 0 {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE cached_at <= ?;`, expiryCutoff(now, s.TTL)); err != nil {
			return fmt.Errorf("prune geocode cache: %w", err)
		}
	}

	return nil
}

func (s *SqliteGeocodeCache) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

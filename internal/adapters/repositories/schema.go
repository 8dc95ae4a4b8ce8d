package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/db"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Column types differ only where the dialects disagree.
type dialect struct {
	id        string
	money     string
	boolean   string
	timestamp string
	real      string
}

var dialects = map[string]dialect{
	db.DriverSQLite: {
		id:        "INTEGER PRIMARY KEY AUTOINCREMENT",
		money:     "TEXT",
		boolean:   "INTEGER",
		timestamp: "DATETIME",
		real:      "REAL",
	},
	db.DriverPostgres: {
		id:        "BIGSERIAL PRIMARY KEY",
		money:     "NUMERIC(10,4)",
		boolean:   "BOOLEAN",
		timestamp: "TIMESTAMPTZ",
		real:      "DOUBLE PRECISION",
	},
}

func schemaStatements(d dialect) []string {
	return []string{
		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS vehicles (
		id %s,
		user_id BIGINT NOT NULL,
		make TEXT NOT NULL,
		model TEXT NOT NULL,
		fuel TEXT NOT NULL,
		rate_per_km %s NOT NULL,
		active %s NOT NULL,
		created_at %s NOT NULL
	);
	`, d.id, d.money, d.boolean, d.timestamp),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS trips (
		id %s,
		user_id BIGINT NOT NULL,
		trip_date TEXT NOT NULL,
		origin_name TEXT NOT NULL,
		origin_street TEXT NOT NULL,
		origin_city TEXT NOT NULL,
		origin_postal_code TEXT NOT NULL,
		origin_country TEXT NOT NULL,
		destination_name TEXT NOT NULL,
		destination_street TEXT NOT NULL,
		destination_city TEXT NOT NULL,
		destination_postal_code TEXT NOT NULL,
		destination_country TEXT NOT NULL,
		kilometers %s NOT NULL,
		km_source TEXT NOT NULL,
		round_trip %s NOT NULL,
		purpose TEXT NOT NULL,
		vehicle_id BIGINT NOT NULL REFERENCES vehicles(id),
		notes TEXT NOT NULL,
		created_at %s NOT NULL,
		updated_at %s NOT NULL
	);
	`, d.id, d.real, d.boolean, d.timestamp, d.timestamp),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lat %s NOT NULL,
        lon %s NOT NULL,
        cached_at BIGINT NOT NULL
    );
	`, d.real, d.real),

		`CREATE INDEX IF NOT EXISTS idx_vehicles_user ON vehicles(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_trips_user_date ON trips(user_id, trip_date);`,
		`CREATE INDEX IF NOT EXISTS idx_trips_vehicle ON trips(vehicle_id);`,
		`CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);`,
	}
}

// InitSchema creates the tables for the connection's dialect.
func InitSchema(ctx context.Context, conn *sqlx.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	d, ok := dialects[conn.DriverName()]
	if !ok {
		return fmt.Errorf("init schema: unsupported driver %q", conn.DriverName())
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements(d) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type VehicleSeed struct {
	UserID    int64           `json:"user_id"`
	Make      string          `json:"make"`
	Model     string          `json:"model"`
	Fuel      string          `json:"fuel"`
	RatePerKm decimal.Decimal `json:"rate_per_km"`
}

// SeedVehiclesFromJSON inserts the vehicles listed in a JSON file.
// The whole file is validated before anything is written.
func SeedVehiclesFromJSON(ctx context.Context, repo *SQLVehicleRepository, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed vehicles: read %q: %w", jsonPath, err)
	}

	var data []VehicleSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed vehicles: parse json: %w", err)
	}

	vehicles := make([]*domain.Vehicle, 0, len(data))
	for i, item := range data {
		v, err := domain.NewVehicle(item.UserID, item.Make, item.Model, item.Fuel, item.RatePerKm)
		if err != nil {
			return 0, fmt.Errorf("seed vehicles: item at index %d: %w", i+1, err)
		}
		vehicles = append(vehicles, v)
	}

	for _, v := range vehicles {
		if err := repo.CreateVehicle(ctx, v); err != nil {
			return 0, fmt.Errorf("seed vehicles: insert %s: %w", v.DisplayName(), err)
		}
	}

	return len(vehicles), nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/obs"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type vehicleRow struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Make      string          `db:"make"`
	Model     string          `db:"model"`
	Fuel      string          `db:"fuel"`
	RatePerKm decimal.Decimal `db:"rate_per_km"`
	Active    bool            `db:"active"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r vehicleRow) toDomain() *domain.Vehicle {
	return &domain.Vehicle{
		ID:        r.ID,
		UserID:    r.UserID,
		Make:      r.Make,
		Model:     r.Model,
		Fuel:      r.Fuel,
		RatePerKm: r.RatePerKm,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
	}
}

const vehicleColumns = `id, user_id, make, model, fuel, rate_per_km, active, created_at`

// SQL implementation of the VehicleRepository port for SQLite and PostgreSQL.
type SQLVehicleRepository struct{ DB *sqlx.DB }

func NewSQLVehicleRepository(db *sqlx.DB) *SQLVehicleRepository {
	return &SQLVehicleRepository{DB: db}
}

func (s *SQLVehicleRepository) CreateVehicle(ctx context.Context, v *domain.Vehicle) (err error) {
	defer obs.Time(ctx, "vehicles.Create")(&err)

	if s.DB == nil {
		return errors.New("sql vehicle repository: DB is nil")
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	q := s.DB.Rebind(`
	INSERT INTO vehicles (user_id, make, model, fuel, rate_per_km, active, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)
	err = s.DB.QueryRowxContext(ctx, q,
		v.UserID, v.Make, v.Model, v.Fuel, v.RatePerKm.StringFixed(4), v.Active, v.CreatedAt,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("create vehicle: insert: %w", err)
	}

	return nil
}

func (s *SQLVehicleRepository) GetVehicle(ctx context.Context, userID, id int64) (_ *domain.Vehicle, err error) {
	defer obs.Time(ctx, "vehicles.Get")(&err)

	var row vehicleRow
	q := s.DB.Rebind(`SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ? AND user_id = ?;`)
	if err := s.DB.GetContext(ctx, &row, q, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get vehicle %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get vehicle %d: query vehicles table: %w", id, err)
	}

	return row.toDomain(), nil
}

func (s *SQLVehicleRepository) ListVehicles(
	ctx context.Context,
	userID int64,
	includeInactive bool,
) (_ []*domain.Vehicle, err error) {
	defer obs.Time(ctx, "vehicles.List")(&err)

	q := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE user_id = ?`
	args := []any{userID}
	if !includeInactive {
		q += ` AND active = ?`
		args = append(args, true)
	}
	q += ` ORDER BY make, model, id;`

	var rows []vehicleRow
	if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}

	out := make([]*domain.Vehicle, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *SQLVehicleRepository) UpdateVehicle(ctx context.Context, v *domain.Vehicle) (err error) {
	defer obs.Time(ctx, "vehicles.Update")(&err)

	q := s.DB.Rebind(`
	UPDATE vehicles
	SET make = ?, model = ?, fuel = ?, rate_per_km = ?, active = ?
	WHERE id = ? AND user_id = ?;
	`)
	res, err := s.DB.ExecContext(ctx, q,
		v.Make, v.Model, v.Fuel, v.RatePerKm.StringFixed(4), v.Active, v.ID, v.UserID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle %d: %w", v.ID, err)
	}

	return expectOneRow(res, fmt.Sprintf("update vehicle %d", v.ID))
}

func (s *SQLVehicleRepository) CountTripsForVehicle(ctx context.Context, vehicleID int64) (int, error) {
	var n int
	q := s.DB.Rebind(`SELECT COUNT(*) FROM trips WHERE vehicle_id = ?;`)
	if err := s.DB.GetContext(ctx, &n, q, vehicleID); err != nil {
		return 0, fmt.Errorf("count trips for vehicle %d: %w", vehicleID, err)
	}
	return n, nil
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

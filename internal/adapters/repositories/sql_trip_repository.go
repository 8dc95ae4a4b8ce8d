package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/obs"
	"mileage-reimbursement-service/internal/ports"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type tripRow struct {
	ID                    int64     `db:"id"`
	UserID                int64     `db:"user_id"`
	TripDate              string    `db:"trip_date"`
	OriginName            string    `db:"origin_name"`
	OriginStreet          string    `db:"origin_street"`
	OriginCity            string    `db:"origin_city"`
	OriginPostalCode      string    `db:"origin_postal_code"`
	OriginCountry         string    `db:"origin_country"`
	DestinationName       string    `db:"destination_name"`
	DestinationStreet     string    `db:"destination_street"`
	DestinationCity       string    `db:"destination_city"`
	DestinationPostalCode string    `db:"destination_postal_code"`
	DestinationCountry    string    `db:"destination_country"`
	Kilometers            float64   `db:"kilometers"`
	KmSource              string    `db:"km_source"`
	RoundTrip             bool      `db:"round_trip"`
	Purpose               string    `db:"purpose"`
	VehicleID             int64     `db:"vehicle_id"`
	Notes                 string    `db:"notes"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`

	// Joined from vehicles; NULL when the vehicle row is gone.
	VMake      sql.NullString      `db:"v_make"`
	VModel     sql.NullString      `db:"v_model"`
	VFuel      sql.NullString      `db:"v_fuel"`
	VRatePerKm decimal.NullDecimal `db:"v_rate_per_km"`
	VActive    sql.NullBool        `db:"v_active"`
	VUserID    sql.NullInt64       `db:"v_user_id"`
}

func (r tripRow) toDomain() (*domain.Trip, error) {
	date, err := time.Parse(domain.DateLayout, r.TripDate)
	if err != nil {
		return nil, fmt.Errorf("trip %d: parse date %q: %w", r.ID, r.TripDate, err)
	}

	t := &domain.Trip{
		ID:     r.ID,
		UserID: r.UserID,
		Date:   date,
		Origin: domain.Address{
			Name:       r.OriginName,
			Street:     r.OriginStreet,
			City:       r.OriginCity,
			PostalCode: r.OriginPostalCode,
			Country:    r.OriginCountry,
		},
		Destination: domain.Address{
			Name:       r.DestinationName,
			Street:     r.DestinationStreet,
			City:       r.DestinationCity,
			PostalCode: r.DestinationPostalCode,
			Country:    r.DestinationCountry,
		},
		Kilometers: r.Kilometers,
		KmSource:   domain.KmSource(r.KmSource),
		RoundTrip:  r.RoundTrip,
		Purpose:    r.Purpose,
		VehicleID:  r.VehicleID,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}

	if r.VRatePerKm.Valid {
		t.Vehicle = &domain.Vehicle{
			ID:        r.VehicleID,
			UserID:    r.VUserID.Int64,
			Make:      r.VMake.String,
			Model:     r.VModel.String,
			Fuel:      r.VFuel.String,
			RatePerKm: r.VRatePerKm.Decimal,
			Active:    r.VActive.Bool,
		}
	}

	return t, nil
}

// Every read joins the vehicle so reimbursements use its current rate.
const tripSelect = `
	SELECT
		t.id, t.user_id, t.trip_date,
		t.origin_name, t.origin_street, t.origin_city, t.origin_postal_code, t.origin_country,
		t.destination_name, t.destination_street, t.destination_city, t.destination_postal_code, t.destination_country,
		t.kilometers, t.km_source, t.round_trip, t.purpose, t.vehicle_id, t.notes,
		t.created_at, t.updated_at,
		v.make AS v_make, v.model AS v_model, v.fuel AS v_fuel,
		v.rate_per_km AS v_rate_per_km, v.active AS v_active, v.user_id AS v_user_id
	FROM trips t
	LEFT JOIN vehicles v ON v.id = t.vehicle_id
`

// SQL implementation of the TripRepository port for SQLite and PostgreSQL.
type SQLTripRepository struct{ DB *sqlx.DB }

func NewSQLTripRepository(db *sqlx.DB) *SQLTripRepository {
	return &SQLTripRepository{DB: db}
}

func (s *SQLTripRepository) CreateTrip(ctx context.Context, t *domain.Trip) (err error) {
	defer obs.Time(ctx, "trips.Create")(&err)

	if s.DB == nil {
		return errors.New("sql trip repository: DB is nil")
	}

	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	q := s.DB.Rebind(`
	INSERT INTO trips (
		user_id, trip_date,
		origin_name, origin_street, origin_city, origin_postal_code, origin_country,
		destination_name, destination_street, destination_city, destination_postal_code, destination_country,
		kilometers, km_source, round_trip, purpose, vehicle_id, notes,
		created_at, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)
	err = s.DB.QueryRowxContext(ctx, q,
		t.UserID, t.Date.Format(domain.DateLayout),
		t.Origin.Name, t.Origin.Street, t.Origin.City, t.Origin.PostalCode, t.Origin.Country,
		t.Destination.Name, t.Destination.Street, t.Destination.City, t.Destination.PostalCode, t.Destination.Country,
		t.Kilometers, string(t.KmSource), t.RoundTrip, t.Purpose, t.VehicleID, t.Notes,
		t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create trip: insert: %w", err)
	}

	return nil
}

func (s *SQLTripRepository) GetTrip(ctx context.Context, userID, id int64) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "trips.Get")(&err)

	var row tripRow
	q := s.DB.Rebind(tripSelect + ` WHERE t.id = ? AND t.user_id = ?;`)
	if err := s.DB.GetContext(ctx, &row, q, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get trip %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get trip %d: query trips table: %w", id, err)
	}

	return row.toDomain()
}

// ListTrips returns one page of matching trips, newest first, and the total
// number of matches. PerPage <= 0 returns every match.
func (s *SQLTripRepository) ListTrips(ctx context.Context, f ports.TripFilter) (_ []*domain.Trip, _ int, err error) {
	defer obs.Time(ctx, "trips.List")(&err)

	where, args := tripWhere(f)

	var total int
	countQ := s.DB.Rebind(`SELECT COUNT(*) FROM trips t` + where + `;`)
	if err := s.DB.GetContext(ctx, &total, countQ, args...); err != nil {
		return nil, 0, fmt.Errorf("list trips: count: %w", err)
	}

	q := tripSelect + where + ` ORDER BY t.trip_date DESC, t.id DESC`
	if f.PerPage > 0 {
		page := max(f.Page, 1)
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.PerPage, (page-1)*f.PerPage)
	}

	var rows []tripRow
	if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(q+`;`), args...); err != nil {
		return nil, 0, fmt.Errorf("list trips: query trips table: %w", err)
	}

	out := make([]*domain.Trip, 0, len(rows))
	for _, r := range rows {
		t, err := r.toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("list trips: %w", err)
		}
		out = append(out, t)
	}

	return out, total, nil
}

func tripWhere(f ports.TripFilter) (string, []any) {
	conds := []string{"t.user_id = ?"}
	args := []any{f.UserID}

	if f.From != nil {
		conds = append(conds, "t.trip_date >= ?")
		args = append(args, f.From.Format(domain.DateLayout))
	}
	if f.To != nil {
		conds = append(conds, "t.trip_date <= ?")
		args = append(args, f.To.Format(domain.DateLayout))
	}
	if f.VehicleID > 0 {
		conds = append(conds, "t.vehicle_id = ?")
		args = append(args, f.VehicleID)
	}
	if p := strings.TrimSpace(f.Purpose); p != "" {
		conds = append(conds, "LOWER(t.purpose) LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(p))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		cols := []string{
			"t.origin_name", "t.origin_city", "t.origin_street",
			"t.destination_name", "t.destination_city", "t.destination_street",
			"t.purpose", "t.notes",
		}
		ors := make([]string, 0, len(cols))
		for _, c := range cols {
			ors = append(ors, "LOWER("+c+") LIKE ? ESCAPE '\\'")
			args = append(args, likePattern(s))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches s as a literal, case-insensitive substring.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (s *SQLTripRepository) UpdateTrip(ctx context.Context, t *domain.Trip) (err error) {
	defer obs.Time(ctx, "trips.Update")(&err)

	t.UpdatedAt = time.Now().UTC()

	q := s.DB.Rebind(`
	UPDATE trips SET
		trip_date = ?,
		origin_name = ?, origin_street = ?, origin_city = ?, origin_postal_code = ?, origin_country = ?,
		destination_name = ?, destination_street = ?, destination_city = ?, destination_postal_code = ?, destination_country = ?,
		kilometers = ?, km_source = ?, round_trip = ?, purpose = ?, vehicle_id = ?, notes = ?,
		updated_at = ?
	WHERE id = ? AND user_id = ?;
	`)
	res, err := s.DB.ExecContext(ctx, q,
		t.Date.Format(domain.DateLayout),
		t.Origin.Name, t.Origin.Street, t.Origin.City, t.Origin.PostalCode, t.Origin.Country,
		t.Destination.Name, t.Destination.Street, t.Destination.City, t.Destination.PostalCode, t.Destination.Country,
		t.Kilometers, string(t.KmSource), t.RoundTrip, t.Purpose, t.VehicleID, t.Notes,
		t.UpdatedAt,
		t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update trip %d: %w", t.ID, err)
	}

	return expectOneRow(res, fmt.Sprintf("update trip %d", t.ID))
}

func (s *SQLTripRepository) DeleteTrip(ctx context.Context, userID, id int64) (err error) {
	defer obs.Time(ctx, "trips.Delete")(&err)

	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM trips WHERE id = ? AND user_id = ?;`), id, userID)
	if err != nil {
		return fmt.Errorf("delete trip %d: %w", id, err)
	}

	return expectOneRow(res, fmt.Sprintf("delete trip %d", id))
}

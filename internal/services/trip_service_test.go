package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"mileage-reimbursement-service/internal/adapters/repositories"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/db"
	"mileage-reimbursement-service/internal/ports"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDistance struct {
	res   ports.DistanceResult
	err   error
	calls []string
}

func (f *fakeDistance) Distance(_ context.Context, origin, destination string) (ports.DistanceResult, error) {
	f.calls = append(f.calls, origin+" -> "+destination)
	return f.res, f.err
}

type countingBackups struct{ n int }

func (c *countingBackups) AutoBackup(context.Context) { c.n++ }

type fixture struct {
	trips    *TripService
	vehicles *VehicleService
	distance *fakeDistance
	backups  *countingBackups
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), conn))

	vehicleRepo := repositories.NewSQLVehicleRepository(conn)
	tripRepo := repositories.NewSQLTripRepository(conn)

	f := &fixture{
		distance: &fakeDistance{res: ports.DistanceResult{Kilometers: 52.35, Method: ports.MethodOSRM}},
		backups:  &countingBackups{},
	}
	f.vehicles = NewVehicleService(vehicleRepo)
	f.trips = NewTripService(tripRepo, vehicleRepo, f.distance, f.backups)
	return f
}

func (f *fixture) vehicle(t *testing.T, userID int64, rate string) *domain.Vehicle {
	t.Helper()
	v, err := f.vehicles.Create(context.Background(), userID, "Fiat", "Panda", "benzina", decimal.RequireFromString(rate))
	require.NoError(t, err)
	return v
}

func km(v float64) *float64 { return &v }

func tripInput(vehicleID int64) TripInput {
	return TripInput{
		Date:        "2025-03-14",
		Origin:      domain.Address{Name: "Sede", Street: "Via Roma 1", City: "Milano", PostalCode: "20121"},
		Destination: domain.Address{Name: "Cliente", Street: "Via Verdi 3", City: "Bergamo"},
		Kilometers:  km(100),
		Purpose:     "Visita cliente",
		VehicleID:   vehicleID,
	}
}

func TestTripServiceCreateManual(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")

	in := tripInput(v.ID)
	in.RoundTrip = true
	trip, err := f.trips.Create(context.Background(), 1, in)
	require.NoError(t, err)

	assert.Equal(t, domain.KmSourceManual, trip.KmSource)
	assert.Equal(t, "Italia", trip.Origin.Country)
	assert.Equal(t, "84.00", trip.Reimbursement().StringFixed(2))
	assert.Empty(t, f.distance.calls)
	assert.Equal(t, 1, f.backups.n)
}

func TestTripServiceCreateAutomatic(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")

	in := tripInput(v.ID)
	in.Kilometers = nil
	in.AutoKm = true
	trip, err := f.trips.Create(context.Background(), 1, in)
	require.NoError(t, err)

	assert.Equal(t, domain.KmSourceAutomatic, trip.KmSource)
	assert.Equal(t, 52.35, trip.Kilometers)
	assert.Equal(t, []string{"Via Roma 1, 20121 Milano -> Via Verdi 3, Bergamo"}, f.distance.calls)
}

func TestTripServiceCreateAutomaticFailure(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")
	f.distance.err = ErrDistanceUnavailable

	in := tripInput(v.ID)
	in.Kilometers = nil
	in.AutoKm = true
	_, err := f.trips.Create(context.Background(), 1, in)
	assert.ErrorIs(t, err, ErrDistanceUnavailable)
	assert.Zero(t, f.backups.n)
}

func TestTripServiceCreateValidation(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")
	other := f.vehicle(t, 2, "0.42")

	cases := map[string]func(in *TripInput){
		"missing km":      func(in *TripInput) { in.Kilometers = nil },
		"negative km":     func(in *TripInput) { in.Kilometers = km(-1) },
		"bad date":        func(in *TripInput) { in.Date = "14/03/2025" },
		"bad postal code": func(in *TripInput) { in.Origin.PostalCode = "2012" },
		"missing purpose": func(in *TripInput) { in.Purpose = " " },
		"missing street":  func(in *TripInput) { in.Destination.Street = "" },
		"missing vehicle": func(in *TripInput) { in.VehicleID = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := tripInput(v.ID)
			mutate(&in)
			_, err := f.trips.Create(context.Background(), 1, in)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, err := f.trips.Create(context.Background(), 1, tripInput(other.ID))
	assert.ErrorIs(t, err, domain.ErrInvalidVehicle)

	require.NoError(t, f.vehicles.Delete(context.Background(), 1, v.ID))
	_, err = f.trips.Create(context.Background(), 1, tripInput(v.ID))
	assert.ErrorIs(t, err, domain.ErrInvalidVehicle)
}

func TestTripServiceUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")

	trip, err := f.trips.Create(ctx, 1, tripInput(v.ID))
	require.NoError(t, err)

	purpose := "Formazione"
	updated, err := f.trips.Update(ctx, 1, trip.ID, TripPatch{Purpose: &purpose, Recalculate: true})
	require.NoError(t, err)
	assert.Equal(t, "Formazione", updated.Purpose)
	assert.Equal(t, 52.35, updated.Kilometers)
	assert.Equal(t, domain.KmSourceAutomatic, updated.KmSource)

	updated, err = f.trips.Update(ctx, 1, trip.ID, TripPatch{Kilometers: km(10)})
	require.NoError(t, err)
	assert.Equal(t, domain.KmSourceManual, updated.KmSource)

	got, err := f.trips.Get(ctx, 1, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Kilometers)
	assert.Equal(t, "4.20", got.Reimbursement().StringFixed(2))

	_, err = f.trips.Update(ctx, 2, trip.ID, TripPatch{Purpose: &purpose})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 3, f.backups.n)
}

func TestTripServiceDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")

	trip, err := f.trips.Create(ctx, 1, tripInput(v.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, f.trips.Delete(ctx, 2, trip.ID), domain.ErrNotFound)
	require.NoError(t, f.trips.Delete(ctx, 1, trip.ID))
	_, err = f.trips.Get(ctx, 1, trip.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripServiceListPaginationCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")

	for i := 0; i < 3; i++ {
		_, err := f.trips.Create(ctx, 1, tripInput(v.ID))
		require.NoError(t, err)
	}

	page, err := f.trips.List(ctx, ports.TripFilter{UserID: 1, PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Pages)

	page, err = f.trips.List(ctx, ports.TripFilter{UserID: 1, PerPage: 2, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Trips, 1)
	assert.Equal(t, 2, page.Pages)
}

func TestTripServiceStatsAndRetroactiveRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")

	in := tripInput(v.ID)
	_, err := f.trips.Create(ctx, 1, in)
	require.NoError(t, err)
	in.RoundTrip = true
	in.Date = "2025-04-01"
	_, err = f.trips.Create(ctx, 1, in)
	require.NoError(t, err)

	stats, err := f.trips.Stats(ctx, ports.TripFilter{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TripCount)
	assert.Equal(t, 200.0, stats.TotalKilometers)
	assert.Equal(t, "126.00", stats.TotalReimbursement.StringFixed(2))

	rate := decimal.RequireFromString("0.50")
	_, err = f.vehicles.Update(ctx, 1, v.ID, VehiclePatch{RatePerKm: &rate})
	require.NoError(t, err)

	stats, err = f.trips.Stats(ctx, ports.TripFilter{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "150.00", stats.TotalReimbursement.StringFixed(2))
	assert.Equal(t, "50.00", stats.ByMonth["2025-03"].Reimbursement.StringFixed(2))
}

func TestTripServiceExportCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.vehicle(t, 1, "0.42")

	_, err := f.trips.Create(ctx, 1, tripInput(v.ID))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.trips.ExportCSV(ctx, ports.TripFilter{UserID: 1}, &buf))

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"Data", "Partenza", "Arrivo", "Km", "Metodo", "Motivo", "Veicolo", "Rimborso (€)"}, records[0])
	assert.Equal(t, []string{
		"2025-03-14",
		"Sede - Via Roma 1, Milano",
		"Cliente - Via Verdi 3, Bergamo",
		"100.00",
		"manual",
		"Visita cliente",
		"Fiat Panda",
		"42.00",
	}, records[1])
}

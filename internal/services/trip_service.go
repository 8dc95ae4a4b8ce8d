package services

import (
	"context"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/ports"
	"strings"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// DistanceResolver is the road-distance pipeline used for automatic kilometers.
type DistanceResolver interface {
	Distance(ctx context.Context, origin, destination string) (ports.DistanceResult, error)
}

// AutoBackuper snapshots the database after a trip write. Failures are the
// implementation's concern and never fail the write.
type AutoBackuper interface {
	AutoBackup(ctx context.Context)
}

type TripInput struct {
	Date        string
	Origin      domain.Address
	Destination domain.Address
	// Nil with AutoKm set asks the distance pipeline for the value.
	Kilometers *float64
	AutoKm     bool
	RoundTrip  bool
	Purpose    string
	VehicleID  int64
	Notes      string
}

type TripPatch struct {
	Date        *string
	Origin      *domain.Address
	Destination *domain.Address
	Kilometers  *float64
	// Recalculate recomputes kilometers from the (possibly updated) addresses.
	Recalculate bool
	RoundTrip   *bool
	Purpose     *string
	VehicleID   *int64
	Notes       *string
}

type TripPage struct {
	Trips   []*domain.Trip
	Total   int
	Page    int
	PerPage int
	Pages   int
}

type TripService struct {
	trips    ports.TripRepository
	vehicles ports.VehicleRepository
	distance DistanceResolver
	backups  AutoBackuper
}

func NewTripService(
	trips ports.TripRepository,
	vehicles ports.VehicleRepository,
	distance DistanceResolver,
	backups AutoBackuper,
) *TripService {
	return &TripService{trips: trips, vehicles: vehicles, distance: distance, backups: backups}
}

func (s *TripService) Create(ctx context.Context, userID int64, in TripInput) (*domain.Trip, error) {
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	t := &domain.Trip{
		UserID:      userID,
		Date:        date,
		Origin:      in.Origin.Normalize(),
		Destination: in.Destination.Normalize(),
		RoundTrip:   in.RoundTrip,
		Purpose:     strings.TrimSpace(in.Purpose),
		VehicleID:   in.VehicleID,
		Notes:       strings.TrimSpace(in.Notes),
		KmSource:    domain.KmSourceManual,
	}

	v, err := s.usableVehicle(ctx, userID, in.VehicleID)
	if err != nil {
		return nil, err
	}
	t.Vehicle = v

	switch {
	case in.Kilometers != nil:
		t.Kilometers = *in.Kilometers
	case in.AutoKm:
		if err := s.fillKilometers(ctx, t); err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewValidationError("kilometers", "is required unless automatic calculation is requested")
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.trips.CreateTrip(ctx, t); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	s.afterWrite(ctx)
	return t, nil
}

func (s *TripService) Get(ctx context.Context, userID, id int64) (*domain.Trip, error) {
	return s.trips.GetTrip(ctx, userID, id)
}

// List returns one page of trips; PerPage defaults to DefaultPerPage and is
// capped at MaxPerPage.
func (s *TripService) List(ctx context.Context, f ports.TripFilter) (TripPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	f.PerPage = min(f.PerPage, MaxPerPage)

	trips, total, err := s.trips.ListTrips(ctx, f)
	if err != nil {
		return TripPage{}, fmt.Errorf("list trips: %w", err)
	}

	return TripPage{
		Trips:   trips,
		Total:   total,
		Page:    f.Page,
		PerPage: f.PerPage,
		Pages:   (total + f.PerPage - 1) / f.PerPage,
	}, nil
}

func (s *TripService) Update(ctx context.Context, userID, id int64, p TripPatch) (*domain.Trip, error) {
	t, err := s.trips.GetTrip(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Date != nil {
		if t.Date, err = domain.ParseDate(*p.Date); err != nil {
			return nil, err
		}
	}
	if p.Origin != nil {
		t.Origin = p.Origin.Normalize()
	}
	if p.Destination != nil {
		t.Destination = p.Destination.Normalize()
	}
	if p.RoundTrip != nil {
		t.RoundTrip = *p.RoundTrip
	}
	if p.Purpose != nil {
		t.Purpose = strings.TrimSpace(*p.Purpose)
	}
	if p.Notes != nil {
		t.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.VehicleID != nil && *p.VehicleID != t.VehicleID {
		v, err := s.usableVehicle(ctx, userID, *p.VehicleID)
		if err != nil {
			return nil, err
		}
		t.VehicleID, t.Vehicle = v.ID, v
	}

	switch {
	case p.Kilometers != nil:
		t.Kilometers = *p.Kilometers
		t.KmSource = domain.KmSourceManual
	case p.Recalculate:
		if err := s.fillKilometers(ctx, t); err != nil {
			return nil, err
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.trips.UpdateTrip(ctx, t); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	s.afterWrite(ctx)
	return t, nil
}

func (s *TripService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.trips.DeleteTrip(ctx, userID, id); err != nil {
		return err
	}
	s.afterWrite(ctx)
	return nil
}

// Stats aggregates every trip matching f; pagination fields are ignored.
func (s *TripService) Stats(ctx context.Context, f ports.TripFilter) (domain.TripStats, error) {
	trips, err := s.all(ctx, f)
	if err != nil {
		return domain.TripStats{}, fmt.Errorf("trip stats: %w", err)
	}
	return domain.ComputeStats(trips), nil
}

func (s *TripService) all(ctx context.Context, f ports.TripFilter) ([]*domain.Trip, error) {
	f.Page, f.PerPage = 0, 0
	trips, _, err := s.trips.ListTrips(ctx, f)
	return trips, err
}

// usableVehicle resolves a vehicle that the user owns and has not deactivated.
func (s *TripService) usableVehicle(ctx context.Context, userID, vehicleID int64) (*domain.Vehicle, error) {
	if vehicleID <= 0 {
		return nil, domain.NewValidationError("vehicle_id", "is required")
	}

	v, err := s.vehicles.GetVehicle(ctx, userID, vehicleID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("vehicle %d: %w", vehicleID, domain.ErrInvalidVehicle)
	}
	if err != nil {
		return nil, fmt.Errorf("load vehicle %d: %w", vehicleID, err)
	}
	if !v.Active {
		return nil, fmt.Errorf("vehicle %d is inactive: %w", vehicleID, domain.ErrInvalidVehicle)
	}
	return v, nil
}

func (s *TripService) fillKilometers(ctx context.Context, t *domain.Trip) error {
	if s.distance == nil {
		return ErrDistanceUnavailable
	}
	if err := t.Origin.Validate("origin"); err != nil {
		return err
	}
	if err := t.Destination.Validate("destination"); err != nil {
		return err
	}

	res, err := s.distance.Distance(ctx, t.Origin.Query(), t.Destination.Query())
	if err != nil {
		return err
	}

	t.Kilometers = res.Kilometers
	t.KmSource = domain.KmSourceAutomatic
	return nil
}

func (s *TripService) afterWrite(ctx context.Context) {
	if s.backups != nil {
		s.backups.AutoBackup(ctx)
	}
}

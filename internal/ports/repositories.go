package ports

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
	"time"
)

// Port: persistence for vehicles, always scoped to the owning user.
type VehicleRepository interface {
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
	GetVehicle(ctx context.Context, userID, id int64) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, userID int64, includeInactive bool) ([]*domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *domain.Vehicle) error
	CountTripsForVehicle(ctx context.Context, vehicleID int64) (int, error)
}

// TripFilter narrows trip listings. Zero values mean "no filter".
type TripFilter struct {
	UserID    int64
	From      *time.Time
	To        *time.Time
	VehicleID int64
	Purpose   string
	Search    string
	Page      int
	PerPage   int
}

// Port: persistence for trips. Reads populate Trip.Vehicle.
type TripRepository interface {
	CreateTrip(ctx context.Context, t *domain.Trip) error
	GetTrip(ctx context.Context, userID, id int64) (*domain.Trip, error)
	ListTrips(ctx context.Context, f TripFilter) ([]*domain.Trip, int, error)
	UpdateTrip(ctx context.Context, t *domain.Trip) error
	DeleteTrip(ctx context.Context, userID, id int64) error
}

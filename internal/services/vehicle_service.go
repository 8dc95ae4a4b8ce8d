package services

import (
	"context"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/ports"
	"strings"

	"github.com/shopspring/decimal"
)

type VehiclePatch struct {
	Make      *string
	Model     *string
	Fuel      *string
	RatePerKm *decimal.Decimal
	Active    *bool
}

type VehicleService struct {
	repo ports.VehicleRepository
}

func NewVehicleService(repo ports.VehicleRepository) *VehicleService {
	return &VehicleService{repo: repo}
}

func (s *VehicleService) Create(
	ctx context.Context,
	userID int64,
	brand, model, fuel string,
	rate decimal.Decimal,
) (*domain.Vehicle, error) {
	v, err := domain.NewVehicle(userID, brand, model, fuel, rate)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateVehicle(ctx, v); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return v, nil
}

func (s *VehicleService) Get(ctx context.Context, userID, id int64) (*domain.Vehicle, error) {
	return s.repo.GetVehicle(ctx, userID, id)
}

func (s *VehicleService) List(ctx context.Context, userID int64, includeInactive bool) ([]*domain.Vehicle, error) {
	return s.repo.ListVehicles(ctx, userID, includeInactive)
}

// Update applies a partial change. A new rate applies retroactively to every
// trip of the vehicle, since reimbursements are never stored.
func (s *VehicleService) Update(ctx context.Context, userID, id int64, p VehiclePatch) (*domain.Vehicle, error) {
	v, err := s.repo.GetVehicle(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Make != nil {
		v.Make = strings.TrimSpace(*p.Make)
	}
	if p.Model != nil {
		v.Model = strings.TrimSpace(*p.Model)
	}
	if p.Fuel != nil {
		v.Fuel = strings.TrimSpace(*p.Fuel)
	}
	if p.RatePerKm != nil {
		v.RatePerKm = *p.RatePerKm
	}
	if p.Active != nil {
		v.Active = *p.Active
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateVehicle(ctx, v); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return v, nil
}

// Delete deactivates a vehicle. Vehicles still referenced by trips are kept
// and a *domain.VehicleInUseError is returned.
func (s *VehicleService) Delete(ctx context.Context, userID, id int64) error {
	v, err := s.repo.GetVehicle(ctx, userID, id)
	if err != nil {
		return err
	}

	n, err := s.repo.CountTripsForVehicle(ctx, v.ID)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if n > 0 {
		return &domain.VehicleInUseError{VehicleID: v.ID, Trips: n}
	}

	v.Active = false
	if err := s.repo.UpdateVehicle(ctx, v); err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return nil
}

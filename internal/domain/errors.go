package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// Routing failures escape the distance pipeline; callers fall back to manual km entry.
	ErrRouteNotFound      = errors.New("no route found between the given points")
	ErrRoutingUnavailable = errors.New("routing engine unavailable")

	ErrInvalidVehicle = errors.New("invalid vehicle")
	ErrVehicleInUse   = errors.New("vehicle has associated trips")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// VehicleInUseError carries the number of trips still referencing a vehicle.
type VehicleInUseError struct {
	VehicleID int64
	Trips     int
}

func (e *VehicleInUseError) Error() string {
	return fmt.Sprintf("vehicle %d has %d associated trips", e.VehicleID, e.Trips)
}

func (e *VehicleInUseError) Unwrap() error { return ErrVehicleInUse }

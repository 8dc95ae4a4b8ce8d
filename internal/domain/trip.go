package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// KmSource records how a trip's kilometers were obtained.
type KmSource string

const (
	KmSourceManual    KmSource = "manual"
	KmSourceAutomatic KmSource = "automatic"
)

func (s KmSource) Valid() bool {
	return s == KmSourceManual || s == KmSourceAutomatic
}

// Trip is a single business journey claimed for reimbursement.
//
// The reimbursement itself is never stored: it is derived from Kilometers,
// RoundTrip and the current rate of Vehicle every time it is read.
type Trip struct {
	ID          int64
	UserID      int64
	Date        time.Time
	Origin      Address
	Destination Address
	Kilometers  float64
	KmSource    KmSource
	RoundTrip   bool
	Purpose     string
	VehicleID   int64
	Vehicle     *Vehicle
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Trip) Validate() error {
	if t.UserID <= 0 {
		return NewValidationError("user_id", "must be positive")
	}
	if t.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if err := t.Origin.Validate("origin"); err != nil {
		return err
	}
	if err := t.Destination.Validate("destination"); err != nil {
		return err
	}
	if t.Kilometers < 0 {
		return NewValidationError("kilometers", "must be non-negative")
	}
	if !t.KmSource.Valid() {
		return NewValidationError("km_source", "must be manual or automatic")
	}
	if strings.TrimSpace(t.Purpose) == "" {
		return NewValidationError("purpose", "is required")
	}
	if t.VehicleID <= 0 {
		return NewValidationError("vehicle_id", "is required")
	}
	return nil
}

// EffectiveKilometers doubles the distance for round trips.
func (t *Trip) EffectiveKilometers() float64 {
	if t.RoundTrip {
		return t.Kilometers * 2
	}
	return t.Kilometers
}

// Reimbursement derives the amount from the vehicle's current rate.
// Trips without a loaded vehicle are worth zero.
func (t *Trip) Reimbursement() decimal.Decimal {
	if t.Vehicle == nil {
		return ComputeReimbursement(t.Kilometers, t.RoundTrip, nil)
	}
	rate := t.Vehicle.RatePerKm
	return ComputeReimbursement(t.Kilometers, t.RoundTrip, &rate)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD) in UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, NewValidationError("date", "must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

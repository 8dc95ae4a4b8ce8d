package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle owned by a user, carrying the per-kilometer reimbursement rate.
// Deleting a vehicle only deactivates it; trips keep pointing at it.
type Vehicle struct {
	ID        int64
	UserID    int64
	Make      string
	Model     string
	Fuel      string
	RatePerKm decimal.Decimal
	Active    bool
	CreatedAt time.Time
}

func NewVehicle(userID int64, brand, model, fuel string, rate decimal.Decimal) (*Vehicle, error) {
	v := &Vehicle{
		UserID:    userID,
		Make:      strings.TrimSpace(brand),
		Model:     strings.TrimSpace(model),
		Fuel:      strings.TrimSpace(fuel),
		RatePerKm: rate,
		Active:    true,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vehicle) Validate() error {
	if v.UserID <= 0 {
		return NewValidationError("user_id", "must be positive")
	}
	if v.Make == "" {
		return NewValidationError("make", "is required")
	}
	if v.Model == "" {
		return NewValidationError("model", "is required")
	}
	if v.Fuel == "" {
		return NewValidationError("fuel", "is required")
	}
	if !v.RatePerKm.IsPositive() {
		return NewValidationError("rate_per_km", "must be positive")
	}
	return nil
}

// DisplayName is "Make Model", used by exports and statistics.
func (v *Vehicle) DisplayName() string {
	return strings.TrimSpace(v.Make + " " + v.Model)
}

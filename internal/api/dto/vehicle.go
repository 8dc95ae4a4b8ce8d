package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateVehicleRequest struct {
	Make      string          `json:"make"`
	Model     string          `json:"model"`
	Fuel      string          `json:"fuel"`
	RatePerKm decimal.Decimal `json:"rate_per_km"`
}

type UpdateVehicleRequest struct {
	Make      *string          `json:"make"`
	Model     *string          `json:"model"`
	Fuel      *string          `json:"fuel"`
	RatePerKm *decimal.Decimal `json:"rate_per_km"`
	Active    *bool            `json:"active"`
}

type VehicleResponse struct {
	ID        int64     `json:"id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Fuel      string    `json:"fuel"`
	RatePerKm string    `json:"rate_per_km"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type ListVehicleResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}

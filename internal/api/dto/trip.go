package dto

import "time"

type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type CreateTripRequest struct {
	Date        string   `json:"date"`
	Origin      Address  `json:"origin"`
	Destination Address  `json:"destination"`
	Kilometers  *float64 `json:"kilometers"`
	AutoKm      bool     `json:"auto_km"`
	RoundTrip   bool     `json:"round_trip"`
	Purpose     string   `json:"purpose"`
	VehicleID   int64    `json:"vehicle_id"`
	Notes       string   `json:"notes"`
}

type UpdateTripRequest struct {
	Date        *string  `json:"date"`
	Origin      *Address `json:"origin"`
	Destination *Address `json:"destination"`
	Kilometers  *float64 `json:"kilometers"`
	Recalculate bool     `json:"recalculate_km"`
	RoundTrip   *bool    `json:"round_trip"`
	Purpose     *string  `json:"purpose"`
	VehicleID   *int64   `json:"vehicle_id"`
	Notes       *string  `json:"notes"`
}

type TripResponse struct {
	ID            int64            `json:"id"`
	Date          string           `json:"date"`
	Origin        Address          `json:"origin"`
	Destination   Address          `json:"destination"`
	Kilometers    float64          `json:"kilometers"`
	KmSource      string           `json:"km_source"`
	RoundTrip     bool             `json:"round_trip"`
	Purpose       string           `json:"purpose"`
	VehicleID     int64            `json:"vehicle_id"`
	Vehicle       *VehicleResponse `json:"vehicle"`
	Notes         string           `json:"notes"`
	Reimbursement string           `json:"reimbursement"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type ListTripResponse struct {
	Trips   []TripResponse `json:"trips"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Pages   int            `json:"pages"`
}

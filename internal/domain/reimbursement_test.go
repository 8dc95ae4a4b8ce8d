package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func rate(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeReimbursement(t *testing.T) {
	cases := []struct {
		name      string
		km        float64
		roundTrip bool
		rate      *decimal.Decimal
		want      string
	}{
		{"one way", 100, false, rate("0.42"), "42.00"},
		{"round trip doubles", 100, true, rate("0.42"), "84.00"},
		{"zero km", 0, false, rate("0.42"), "0.00"},
		{"negative km", -5, false, rate("0.42"), "0.00"},
		{"no rate", 100, false, nil, "0.00"},
		{"zero rate", 100, false, rate("0"), "0.00"},
		{"float km converted exactly", 0.1, false, rate("3"), "0.30"},
		{"half to even down", 13.5, false, rate("0.39"), "5.26"},
		{"half to even up", 13.5, false, rate("0.41"), "5.54"},
		{"four decimal rate", 52.35, true, rate("0.3912"), "40.96"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeReimbursement(tc.km, tc.roundTrip, tc.rate)
			if got.StringFixed(2) != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.StringFixed(2))
			}
		})
	}
}

func TestTripReimbursementIsDerived(t *testing.T) {
	v := &Vehicle{RatePerKm: decimal.RequireFromString("0.42")}
	trip := &Trip{Kilometers: 100, RoundTrip: true, Vehicle: v}

	if got := trip.Reimbursement().StringFixed(2); got != "84.00" {
		t.Fatalf("expected 84.00, got %s", got)
	}

	v.RatePerKm = decimal.RequireFromString("0.50")
	if got := trip.Reimbursement().StringFixed(2); got != "100.00" {
		t.Fatalf("expected 100.00 after rate change, got %s", got)
	}

	trip.Vehicle = nil
	if !trip.Reimbursement().IsZero() {
		t.Fatalf("expected zero without a vehicle, got %s", trip.Reimbursement())
	}
}

package domain

import "github.com/shopspring/decimal"

// ComputeReimbursement returns the amount owed for a trip.
//
// Kilometers are converted to a decimal through their shortest float
// representation before multiplying, so 100 km at 0.42 is exactly 42.00.
// The result is rounded half-to-even to cents. A nil or non-positive rate
// yields zero.
func ComputeReimbursement(kilometers float64, roundTrip bool, ratePerKm *decimal.Decimal) decimal.Decimal {
	if ratePerKm == nil || !ratePerKm.IsPositive() || kilometers <= 0 {
		return decimal.Zero
	}

	effective := decimal.NewFromFloat(kilometers)
	if roundTrip {
		effective = effective.Mul(decimal.NewFromInt(2))
	}

	return effective.Mul(*ratePerKm).RoundBank(2)
}

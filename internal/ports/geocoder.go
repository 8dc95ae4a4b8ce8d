package ports

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
)

// Geocoder resolves free-text addresses to coordinates.
// Resolution never fails: unresolvable input yields a fixed fallback coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) domain.Coordinates
}

// GeocodeCache memoizes address -> coordinate lookups keyed by the exact address string.
type GeocodeCache interface {
	Get(ctx context.Context, address string) (domain.Coordinates, bool, error)
	Put(ctx context.Context, address string, c domain.Coordinates) error
}

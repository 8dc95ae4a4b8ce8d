package ports

import (
	"context"
	"mileage-reimbursement-service/internal/domain"
)

// RoutingMethod identifies the engine that produced a distance.
type RoutingMethod string

const (
	MethodOSRM     RoutingMethod = "osrm"
	MethodValhalla RoutingMethod = "valhalla"
)

// Road distance between two points, in kilometers rounded to 2 decimals.
type DistanceResult struct {
	Kilometers float64
	Method     RoutingMethod
}

// Contract for obtaining the shortest driving distance along the road network.
//
// Implementations fail with domain.ErrRouteNotFound or domain.ErrRoutingUnavailable;
// they never substitute a straight-line estimate.
type RouteProvider interface {
	Route(ctx context.Context, origin, destination domain.Coordinates) (DistanceResult, error)
}

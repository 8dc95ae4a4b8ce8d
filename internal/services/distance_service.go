package services

import (
	"context"
	"errors"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/obs"
	"mileage-reimbursement-service/internal/ports"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrDistanceUnavailable is returned when no road distance could be computed
// and the user has to enter kilometers by hand.
var ErrDistanceUnavailable = errors.New("distance unavailable, enter kilometers manually")

type fallbackReporter interface {
	Fallback() domain.Coordinates
}

// DistanceService chains geocoding and routing: two addresses in, one road
// distance out. Geocoding never fails; routing failures are surfaced as
// ErrDistanceUnavailable wrapping the routing cause.
type DistanceService struct {
	geocoder ports.Geocoder
	router   ports.RouteProvider
	timeout  time.Duration
	log      *zap.Logger
}

// NewDistanceService builds the pipeline. timeout bounds the whole call,
// ladder included; zero leaves only the per-request upstream timeouts.
func NewDistanceService(
	geocoder ports.Geocoder,
	router ports.RouteProvider,
	timeout time.Duration,
	log *zap.Logger,
) *DistanceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DistanceService{geocoder: geocoder, router: router, timeout: timeout, log: log.Named("distance")}
}

func (s *DistanceService) Distance(
	ctx context.Context,
	origin string,
	destination string,
) (_ ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.Resolve")(&err)

	if strings.TrimSpace(origin) == "" {
		return ports.DistanceResult{}, domain.NewValidationError("origin", "is required")
	}
	if strings.TrimSpace(destination) == "" {
		return ports.DistanceResult{}, domain.NewValidationError("destination", "is required")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	from := s.geocoder.Geocode(ctx, origin)
	to := s.geocoder.Geocode(ctx, destination)
	s.warnOnFallback(ctx, "origin", origin, from)
	s.warnOnFallback(ctx, "destination", destination, to)

	res, err := s.router.Route(ctx, from, to)
	if err != nil {
		s.log.Warn("routing failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("origin", origin),
			zap.String("destination", destination),
			zap.Error(err),
		)
		return ports.DistanceResult{}, fmt.Errorf("%w: %w", ErrDistanceUnavailable, err)
	}

	s.log.Info("distance resolved",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("origin", origin),
		zap.String("destination", destination),
		zap.Float64("km", res.Kilometers),
		zap.String("method", string(res.Method)),
	)

	return res, nil
}

// A fallback coordinate still yields a distance, but usually a wrong one.
func (s *DistanceService) warnOnFallback(ctx context.Context, side, address string, c domain.Coordinates) {
	fr, ok := s.geocoder.(fallbackReporter)
	if !ok || c != fr.Fallback() {
		return
	}
	s.log.Warn("address resolved to fallback coordinate",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("side", side),
		zap.String("address", address),
	)
}

package services

import (
	"context"
	"mileage-reimbursement-service/internal/adapters/distance"
	"mileage-reimbursement-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	coords   map[string]domain.Coordinates
	fallback domain.Coordinates
	calls    int
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) domain.Coordinates {
	g.calls++
	if c, ok := g.coords[address]; ok {
		return c
	}
	return g.fallback
}

func (g *stubGeocoder) Fallback() domain.Coordinates { return g.fallback }

var (
	milano  = domain.Coordinates{Lat: 45.4642, Lon: 9.19}
	bergamo = domain.Coordinates{Lat: 45.6983, Lon: 9.6773}
	center  = domain.Coordinates{Lat: 41.9, Lon: 12.5}
)

func newStubGeocoder() *stubGeocoder {
	return &stubGeocoder{
		coords: map[string]domain.Coordinates{
			"Via Roma 1, 20121 Milano": milano,
			"Via Verdi 3, Bergamo":     bergamo,
		},
		fallback: center,
	}
}

func TestDistanceServiceResolves(t *testing.T) {
	router := distance.NewMockRouteProvider([]distance.MockLeg{
		{From: milano, To: bergamo, Kilometers: 52.3456},
	})
	svc := NewDistanceService(newStubGeocoder(), router, 0, nil)

	res, err := svc.Distance(context.Background(), "Via Roma 1, 20121 Milano", "Via Verdi 3, Bergamo")
	require.NoError(t, err)
	assert.Equal(t, 52.35, res.Kilometers)
	assert.Equal(t, 1, router.Calls())
}

func TestDistanceServiceSameAddressIsZero(t *testing.T) {
	router := distance.NewMockRouteProvider([]distance.MockLeg{
		{From: milano, To: milano, Kilometers: 0},
	})
	svc := NewDistanceService(newStubGeocoder(), router, 0, nil)

	res, err := svc.Distance(context.Background(), "Via Roma 1, 20121 Milano", "Via Roma 1, 20121 Milano")
	require.NoError(t, err)
	assert.Zero(t, res.Kilometers)
}

func TestDistanceServiceRoutingFailureIsSurfaced(t *testing.T) {
	for _, cause := range []error{domain.ErrRouteNotFound, domain.ErrRoutingUnavailable} {
		router := distance.NewMockRouteProvider(nil).FailWith(cause)
		svc := NewDistanceService(newStubGeocoder(), router, 0, nil)

		res, err := svc.Distance(context.Background(), "Via Roma 1, 20121 Milano", "Via Verdi 3, Bergamo")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDistanceUnavailable)
		assert.ErrorIs(t, err, cause)
		assert.Zero(t, res)
	}
}

func TestDistanceServiceUnresolvableAddressesStillRoute(t *testing.T) {
	router := distance.NewMockRouteProvider([]distance.MockLeg{
		{From: center, To: bergamo, Kilometers: 600},
	})
	svc := NewDistanceService(newStubGeocoder(), router, 0, nil)

	res, err := svc.Distance(context.Background(), "Xyzzy", "Via Verdi 3, Bergamo")
	require.NoError(t, err)
	assert.Equal(t, 600.0, res.Kilometers)
}

func TestDistanceServiceRejectsEmptyInput(t *testing.T) {
	geo := newStubGeocoder()
	router := distance.NewMockRouteProvider(nil)
	svc := NewDistanceService(geo, router, 0, nil)

	_, err := svc.Distance(context.Background(), " ", "Via Verdi 3, Bergamo")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "origin", verr.Field)

	_, err = svc.Distance(context.Background(), "Via Roma 1, 20121 Milano", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "destination", verr.Field)

	assert.Zero(t, geo.calls)
	assert.Zero(t, router.Calls())
}

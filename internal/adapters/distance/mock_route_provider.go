package distance

import (
	"context"
	"fmt"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/ports"
	"sync"
)

type MockLeg struct {
	From, To   domain.Coordinates
	Kilometers float64
}

// MockRouteProvider answers from a fixed table of legs and records each call.
// Unknown legs fail with domain.ErrRouteNotFound.
type MockRouteProvider struct {
	mu    sync.Mutex
	m     map[[2]domain.Coordinates]float64
	err   error
	calls int
}

func NewMockRouteProvider(legs []MockLeg) *MockRouteProvider {
	m := make(map[[2]domain.Coordinates]float64, len(legs))
	for _, l := range legs {
		m[[2]domain.Coordinates{l.From, l.To}] = l.Kilometers
	}
	return &MockRouteProvider{m: m}
}

// FailWith makes every subsequent Route call return err.
func (p *MockRouteProvider) FailWith(err error) *MockRouteProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

func (p *MockRouteProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockRouteProvider) Route(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if p.err != nil {
		return ports.DistanceResult{}, p.err
	}

	km, ok := p.m[[2]domain.Coordinates{origin, destination}]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing leg %s -> %s: %w", origin, destination, domain.ErrRouteNotFound)
	}

	return ports.DistanceResult{Kilometers: domain.RoundKm(km), Method: "mock"}, nil
}

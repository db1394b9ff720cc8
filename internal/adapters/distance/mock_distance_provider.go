package distance

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"fmt"
)

// MockPair is one symmetric entry of a fixed distance table.
type MockPair struct {
	From, To string
	Km       float64
	Hours    float64
}

// MockDistanceProvider serves a fixed table keyed by location name.
type MockDistanceProvider struct {
	m map[string]ports.DistanceResult
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]ports.DistanceResult, 2*len(pairs))
	for _, p := range pairs {
		r := ports.DistanceResult{DistanceKm: p.Km, DurationHours: p.Hours}
		m[p.From+"|"+p.To] = r
		if _, ok := m[p.To+"|"+p.From]; !ok {
			m[p.To+"|"+p.From] = r
		}
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination domain.Location) (ports.DistanceResult, error) {
	if origin.Name == destination.Name {
		return ports.DistanceResult{}, nil
	}

	r, ok := p.m[origin.Name+"|"+destination.Name]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %q -> %q", origin.Name, destination.Name)
	}

	return r, nil
}

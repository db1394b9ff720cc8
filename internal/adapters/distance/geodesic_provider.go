package distance

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"fmt"
)

// GeodesicProvider approximates road travel by scaling the great-circle
// distance with a detour factor and driving it at a constant speed.
type GeodesicProvider struct {
	detourFactor float64
	speedKmh     float64
}

func NewGeodesicProvider(detourFactor, speedKmh float64) (*GeodesicProvider, error) {
	if detourFactor <= 0 {
		return nil, fmt.Errorf("new geodesic provider: detour factor must be positive, got %v", detourFactor)
	}
	if speedKmh <= 0 {
		return nil, fmt.Errorf("new geodesic provider: speed must be positive, got %v", speedKmh)
	}
	return &GeodesicProvider{detourFactor: detourFactor, speedKmh: speedKmh}, nil
}

func (p *GeodesicProvider) GetDistance(ctx context.Context, origin, destination domain.Location) (ports.DistanceResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.DistanceResult{}, err
	}
	return p.between(origin, destination), nil
}

func (p *GeodesicProvider) GetMatrix(ctx context.Context, points []domain.Location) ([][]ports.DistanceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := make([][]ports.DistanceResult, len(points))
	for i := range points {
		m[i] = make([]ports.DistanceResult, len(points))
	}
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			r := p.between(points[i], points[j])
			m[i][j] = r
			m[j][i] = r
		}
	}
	return m, nil
}

func (p *GeodesicProvider) between(a, b domain.Location) ports.DistanceResult {
	km := a.Coordinates.DistanceKm(b.Coordinates) * p.detourFactor
	return ports.DistanceResult{DistanceKm: km, DurationHours: km / p.speedKmh}
}

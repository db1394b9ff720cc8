package distance

import (
	"context"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeodesicProviderAppliesDetourAndSpeed(t *testing.T) {
	p, err := NewGeodesicProvider(1.5, 55)
	require.NoError(t, err)

	a := domain.Location{Name: "A", Coordinates: domain.Coordinates{Lat: 0, Lon: 0}}
	b := domain.Location{Name: "B", Coordinates: domain.Coordinates{Lat: 0, Lon: 1}}

	r, err := p.GetDistance(context.Background(), a, b)
	require.NoError(t, err)

	want := a.Coordinates.DistanceKm(b.Coordinates) * 1.5
	assert.InDelta(t, want, r.DistanceKm, 1e-9)
	assert.InDelta(t, want/55, r.DurationHours, 1e-9)
}

func TestGeodesicProviderMatrixIsSymmetric(t *testing.T) {
	p, err := NewGeodesicProvider(1.5, 55)
	require.NoError(t, err)

	points := []domain.Location{
		{Name: "CD", Coordinates: domain.Coordinates{Lat: -19.940308, Lon: -44.012487}},
		{Name: "Obra 1", Coordinates: domain.Coordinates{Lat: -19.92, Lon: -43.94}},
		{Name: "Obra 2", Coordinates: domain.Coordinates{Lat: -20.1, Lon: -44.2}},
	}

	m, err := p.GetMatrix(context.Background(), points)
	require.NoError(t, err)
	require.Len(t, m, 3)

	for i := range points {
		assert.Zero(t, m[i][i].DistanceKm)
		for j := range points {
			assert.Equal(t, m[i][j], m[j][i])
		}
	}
	assert.Greater(t, m[0][2].DistanceKm, m[0][1].DistanceKm)
}

func TestNewGeodesicProviderRejectsBadFactors(t *testing.T) {
	_, err := NewGeodesicProvider(0, 55)
	assert.Error(t, err)
	_, err = NewGeodesicProvider(1.5, -1)
	assert.Error(t, err)
}

func TestMockDistanceProviderIsSymmetric(t *testing.T) {
	p := NewMockDistanceProvider([]MockPair{{From: "CD", To: "A", Km: 10, Hours: 0.25}})

	r, err := p.GetDistance(context.Background(), domain.Location{Name: "A"}, domain.Location{Name: "CD"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.DistanceKm)

	_, err = p.GetDistance(context.Background(), domain.Location{Name: "A"}, domain.Location{Name: "B"})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Routing

	p, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &GeodesicProvider{}, p)

	cfg.Provider = "ors"
	_, err = FromConfig(cfg, nil)
	assert.Error(t, err, "ors needs an api key")

	cfg.ORSAPIKey = "secret"
	p, err = FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ORSProvider{}, p)

	cfg.Provider = "osrm"
	_, err = FromConfig(cfg, nil)
	assert.Error(t, err)
}

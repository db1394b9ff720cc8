package distance

import (
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/ports"
	"fmt"

	"go.uber.org/zap"
)

// FromConfig returns the distance provider named by routing.provider.
func FromConfig(cfg config.RoutingConfig, log *zap.Logger) (ports.DistanceProvider, error) {
	switch cfg.Provider {
	case "", "geodesic":
		p, err := NewGeodesicProvider(cfg.DetourFactor, cfg.AverageSpeedKmh)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ors":
		p, err := NewORSProvider(cfg.ORSAPIKey, log, WithORSBaseURL(cfg.ORSBaseURL), WithORSProfile(cfg.ORSProfile))
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("distance provider: unknown provider %q", cfg.Provider)
}

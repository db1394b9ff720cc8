package distance

import (
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "driving-car"
)

// ORSProvider implements DistanceMatrixProvider with the OpenRouteService
// matrix endpoint, so distances follow the road network instead of a detour
// factor. Tasks must already carry coordinates; it never geocodes.
//
// The provider keeps no state between calls and is safe for concurrent use.
type ORSProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	backoff time.Duration
	log     *zap.Logger
}

type ORSOption func(*ORSProvider)

func WithORSBaseURL(u string) ORSOption {
	return func(o *ORSProvider) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithORSProfile(p string) ORSOption {
	return func(o *ORSProvider) {
		if p != "" {
			o.profile = p
		}
	}
}

func WithORSHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSProvider) {
		if c != nil {
			o.session = c
		}
	}
}

func NewORSProvider(apiKey string, log *zap.Logger, opts ...ORSOption) (*ORSProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("new ors provider: api key is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}

	o := &ORSProvider{
		session: &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: DefaultORSBaseURL,
		profile: DefaultORSProfile,
		backoff: 200 * time.Millisecond,
		log:     log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *ORSProvider) GetDistance(ctx context.Context, origin, destination domain.Location) (ports.DistanceResult, error) {
	m, err := o.GetMatrix(ctx, []domain.Location{origin, destination})
	if err != nil {
		return ports.DistanceResult{}, err
	}
	return m[0][1], nil
}

// GetMatrix fetches every ordered pair of points in one matrix request.
func (o *ORSProvider) GetMatrix(ctx context.Context, points []domain.Location) (m [][]ports.DistanceResult, err error) {
	defer obs.Time(ctx, o.log, "distance.ors_matrix")(&err)

	if len(points) == 0 {
		return [][]ports.DistanceResult{}, nil
	}
	return o.fetchMatrix(ctx, points)
}

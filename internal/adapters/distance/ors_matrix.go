package distance

import (
	"bytes"
	"context"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const matrixAttempts = 4

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
	Units     string      `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// ORS expects [lon, lat].
func lonLat(c domain.Coordinates) []float64 { return []float64{c.Lon, c.Lat} }

// fetchMatrix retrieves the square distance and duration matrix for points
// using the OpenRouteService matrix endpoint. Sources and destinations default
// to every location.
func (o *ORSProvider) fetchMatrix(ctx context.Context, points []domain.Location) ([][]ports.DistanceResult, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, len(points))
	for _, p := range points {
		locations = append(locations, lonLat(p.Coordinates))
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance", "duration"},
		Units:     "km",
	})
	if err != nil {
		return nil, fmt.Errorf("ors matrix: marshal request: %w", err)
	}

	body, err := o.postMatrix(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("ors matrix: request failed: %w", err)
	}

	var mr matrixResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("ors matrix: decode response: %w", err)
	}

	n := len(points)
	if len(mr.Distances) != n || len(mr.Durations) != n {
		return nil, fmt.Errorf("ors matrix: expected %d rows, got distances=%d durations=%d", n, len(mr.Distances), len(mr.Durations))
	}

	out := make([][]ports.DistanceResult, n)
	for i := range out {
		if len(mr.Distances[i]) != n || len(mr.Durations[i]) != n {
			return nil, fmt.Errorf("ors matrix: row %d has %d distances and %d durations, want %d",
				i, len(mr.Distances[i]), len(mr.Durations[i]), n)
		}

		out[i] = make([]ports.DistanceResult, n)
		for j := range out[i] {
			if i == j {
				continue
			}
			km, secs := mr.Distances[i][j], mr.Durations[i][j]
			// null means ORS found no route between the two points.
			if km == nil || secs == nil {
				return nil, fmt.Errorf("ors matrix: no route from %q to %q", points[i].Name, points[j].Name)
			}
			out[i][j] = ports.DistanceResult{DistanceKm: *km, DurationHours: *secs / 3600}
		}
	}

	return out, nil
}

type matrixStatusError struct {
	code int
	body string
}

func (e *matrixStatusError) Error() string {
	return fmt.Sprintf("ors http %d: %s", e.code, e.body)
}

// postMatrix sends the matrix payload and returns the response body. Rate
// limits, gateway failures and network errors are retried with doubling
// backoff; anything else fails on the first attempt.
func (o *ORSProvider) postMatrix(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	wait := o.backoff
	for attempt := 1; ; attempt++ {
		body, err := o.sendMatrix(ctx, endpoint, payload)
		if err == nil {
			return body, nil
		}
		if attempt == matrixAttempts || !transientMatrixError(err) {
			return nil, err
		}

		o.log.Warn("ors matrix request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}

func (o *ORSProvider) sendMatrix(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &matrixStatusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func transientMatrixError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *matrixStatusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var ne net.Error
	return errors.As(err, &ne)
}

package ports

import (
	"context"
	"dispatch-route-service/internal/domain"
)

// Optional extension of DistanceProvider that supports batched lookups.
type DistanceMatrixProvider interface {
	DistanceProvider
	// Return the full square matrix for points, indexed like the input.
	GetMatrix(ctx context.Context, points []domain.Location) ([][]DistanceResult, error)
}

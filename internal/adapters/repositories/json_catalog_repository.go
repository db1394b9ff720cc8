package repositories

import (
	"context"
	"dispatch-route-service/internal/domain"
	"fmt"
)

// File-backed implementation of the CatalogRepository port. The file is read
// once; the repository never changes afterwards.
type JSONCatalogRepository struct {
	vehicles []domain.Vehicle
	items    []domain.Item
}

func NewJSONCatalogRepository(path string) (*JSONCatalogRepository, error) {
	seed, err := LoadCatalogSeed(path)
	if err != nil {
		return nil, fmt.Errorf("json catalog repository: %w", err)
	}
	return NewCatalogFromSeed(seed), nil
}

func NewCatalogFromSeed(seed CatalogSeed) *JSONCatalogRepository {
	r := &JSONCatalogRepository{
		vehicles: make([]domain.Vehicle, 0, len(seed.Vehicles)),
		items:    make([]domain.Item, 0, len(seed.Items)),
	}
	for _, v := range seed.Vehicles {
		r.vehicles = append(r.vehicles, v.toDomain())
	}
	for _, it := range seed.Items {
		r.items = append(r.items, it.toDomain())
	}
	return r
}

func (r *JSONCatalogRepository) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return append([]domain.Vehicle(nil), r.vehicles...), nil
}

func (r *JSONCatalogRepository) ListItems(ctx context.Context) ([]domain.Item, error) {
	return append([]domain.Item(nil), r.items...), nil
}

package ports

import (
	"context"
	"dispatch-route-service/internal/domain"
)

// Port: a boundary for retrieving registered vehicles.
type VehicleRepository interface {
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
}

// Port: a boundary for retrieving catalog items with their dimensions.
type ItemRepository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
}

type CatalogRepository interface {
	VehicleRepository
	ItemRepository
}

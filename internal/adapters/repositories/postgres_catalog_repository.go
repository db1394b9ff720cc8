package repositories

import (
	"context"
	"database/sql"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Postgres-backed implementation of the CatalogRepository port.
type PostgresCatalogRepository struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewPostgresCatalogRepository(db *sql.DB, log *zap.Logger) *PostgresCatalogRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresCatalogRepository{DB: db, log: log}
}

// Return all vehicles ordered by plate.
func (s *PostgresCatalogRepository) ListVehicles(ctx context.Context) (vehicles []domain.Vehicle, err error) {
	defer obs.Time(ctx, s.log, "catalog.list_vehicles")(&err)
	if s.DB == nil {
		return nil, errors.New("postgres catalog repository: DB is nil")
	}

	query := `
	SELECT
		plate, model, category,
		interior_length_m, interior_width_m, interior_height_m,
		volume_liters, weight_capacity_tons,
		cost_per_km, rental_value, driver_fixed_cost,
		slot_capacity, returns_to_depot
	FROM vehicles
	ORDER BY plate;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles = make([]domain.Vehicle, 0, 16)
	for rows.Next() {
		var v domain.Vehicle
		err := rows.Scan(
			&v.Plate, &v.Model, &v.Category,
			&v.Interior.Length, &v.Interior.Width, &v.Interior.Height,
			&v.VolumeLiters, &v.WeightCapacityTons,
			&v.CostPerKm, &v.RentalValue, &v.DriverFixedCost,
			&v.SlotCapacity, &v.ReturnsToDepot,
		)
		if err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}

// Return all catalog items ordered by name.
func (s *PostgresCatalogRepository) ListItems(ctx context.Context) (items []domain.Item, err error) {
	defer obs.Time(ctx, s.log, "catalog.list_items")(&err)
	if s.DB == nil {
		return nil, errors.New("postgres catalog repository: DB is nil")
	}

	query := `
	SELECT name, code, length_m, width_m, height_m, unit_weight_kg
	FROM items
	ORDER BY name;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: query items table: %w", err)
	}
	defer rows.Close()

	items = make([]domain.Item, 0, 64)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.Name, &it.Code, &it.Dimensions.Length, &it.Dimensions.Width, &it.Dimensions.Height, &it.UnitWeightKg); err != nil {
			return nil, fmt.Errorf("list items: scan row: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: row iteration: %w", err)
	}

	return items, nil
}

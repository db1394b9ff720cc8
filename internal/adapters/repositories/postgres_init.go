package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres catalog schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		plate TEXT PRIMARY KEY,
		model TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		interior_length_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		interior_width_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		interior_height_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		volume_liters DOUBLE PRECISION NOT NULL DEFAULT 0,
		weight_capacity_tons DOUBLE PRECISION NOT NULL DEFAULT 0,
		cost_per_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		rental_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		driver_fixed_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		slot_capacity INTEGER NOT NULL DEFAULT 0,
		returns_to_depot BOOLEAN NOT NULL DEFAULT TRUE
	);
	`

	createItemsQuery := `
	CREATE TABLE IF NOT EXISTS items (
		name TEXT PRIMARY KEY,
		code TEXT NOT NULL DEFAULT '',
		length_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		width_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		height_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		unit_weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_items_code ON items(code);
	`

	statements := []string{
		createVehiclesQuery,
		createItemsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the catalog tables from a JSON seed file. Existing rows with the
// same key are overwritten.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	seed, err := LoadCatalogSeed(jsonPath)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed catalog: begin tx: %w", err)
	}
	defer tx.Rollback()

	vehicleQuery := `
	INSERT INTO vehicles (
		plate, model, category,
		interior_length_m, interior_width_m, interior_height_m,
		volume_liters, weight_capacity_tons,
		cost_per_km, rental_value, driver_fixed_cost,
		slot_capacity, returns_to_depot
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (plate) DO UPDATE SET
		model = EXCLUDED.model,
		category = EXCLUDED.category,
		interior_length_m = EXCLUDED.interior_length_m,
		interior_width_m = EXCLUDED.interior_width_m,
		interior_height_m = EXCLUDED.interior_height_m,
		volume_liters = EXCLUDED.volume_liters,
		weight_capacity_tons = EXCLUDED.weight_capacity_tons,
		cost_per_km = EXCLUDED.cost_per_km,
		rental_value = EXCLUDED.rental_value,
		driver_fixed_cost = EXCLUDED.driver_fixed_cost,
		slot_capacity = EXCLUDED.slot_capacity,
		returns_to_depot = EXCLUDED.returns_to_depot;
	`
	vstmt, err := tx.PrepareContext(ctx, vehicleQuery)
	if err != nil {
		return fmt.Errorf("seed catalog: prepare vehicle insert: %w", err)
	}
	defer vstmt.Close()

	for _, s := range seed.Vehicles {
		v := s.toDomain()
		_, err := vstmt.ExecContext(ctx,
			v.Plate, v.Model, v.Category,
			v.Interior.Length, v.Interior.Width, v.Interior.Height,
			v.VolumeLiters, v.WeightCapacityTons,
			v.CostPerKm, v.RentalValue, v.DriverFixedCost,
			v.SlotCapacity, v.ReturnsToDepot,
		)
		if err != nil {
			return fmt.Errorf("seed catalog: insert vehicle plate=%s: %w", v.Plate, err)
		}
	}

	itemQuery := `
	INSERT INTO items (name, code, length_m, width_m, height_m, unit_weight_kg)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (name) DO UPDATE SET
		code = EXCLUDED.code,
		length_m = EXCLUDED.length_m,
		width_m = EXCLUDED.width_m,
		height_m = EXCLUDED.height_m,
		unit_weight_kg = EXCLUDED.unit_weight_kg;
	`
	istmt, err := tx.PrepareContext(ctx, itemQuery)
	if err != nil {
		return fmt.Errorf("seed catalog: prepare item insert: %w", err)
	}
	defer istmt.Close()

	for _, s := range seed.Items {
		it := s.toDomain()
		_, err := istmt.ExecContext(ctx, it.Name, it.Code, it.Dimensions.Length, it.Dimensions.Width, it.Dimensions.Height, it.UnitWeightKg)
		if err != nil {
			return fmt.Errorf("seed catalog: insert item name=%q: %w", it.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed catalog: commit tx: %w", err)
	}

	return nil
}

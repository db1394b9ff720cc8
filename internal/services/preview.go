package services

import (
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
)

// FleetPreview summarizes how the planner sees one vehicle.
type FleetPreview struct {
	Plate          string
	Label          string
	Category       string
	ReturnsToDepot bool
	// SolverSlots is the capacity handed to the model.
	SolverSlots int
	// PreviewSlots is derived with the preview weight buffer and ignores any
	// precomputed capacity.
	PreviewSlots int
	HourlyCost   float64
	CostPerKm    float64
}

func PreviewFleet(cfg config.Config, vehicles []domain.Vehicle) []FleetPreview {
	basis := cfg.SlotBasis()
	out := make([]FleetPreview, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, FleetPreview{
			Plate:          v.Plate,
			Label:          v.DisplayName(),
			Category:       v.Category,
			ReturnsToDepot: v.ReturnsToDepot,
			SolverSlots:    basis.VehicleSlots(v, cfg.Slots.VehicleWeightBufferKg),
			PreviewSlots:   basis.RawVehicleSlots(v, cfg.Slots.PreviewWeightBufferKg),
			HourlyCost:     v.HourlyFixedCost(cfg.Costs.MonthlyHours),
			CostPerKm:      v.CostPerKm,
		})
	}
	return out
}

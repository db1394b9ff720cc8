package dto

type DimensionsResponse struct {
	Length float64 `json:"length_m"`
	Width  float64 `json:"width_m"`
	Height float64 `json:"height_m"`
}

type VehicleResponse struct {
	Plate              string             `json:"plate"`
	Model              string             `json:"model"`
	Category           string             `json:"category"`
	Interior           DimensionsResponse `json:"interior"`
	VolumeLiters       float64            `json:"volume_liters"`
	WeightCapacityTons float64            `json:"weight_capacity_tons"`
	CostPerKm          float64            `json:"cost_per_km"`
	SlotCapacity       int                `json:"slot_capacity"`
	ReturnsToDepot     bool               `json:"returns_to_depot"`
}

type ListVehiclesResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}

type FleetPreviewRequest struct {
	Plates []string `json:"plates"`
}

type FleetPreviewEntry struct {
	Plate          string  `json:"plate"`
	Label          string  `json:"label"`
	Category       string  `json:"category"`
	ReturnsToDepot bool    `json:"returns_to_depot"`
	SolverSlots    int     `json:"solver_slots"`
	PreviewSlots   int     `json:"preview_slots"`
	HourlyCost     float64 `json:"hourly_cost"`
	CostPerKm      float64 `json:"cost_per_km"`
}

type FleetPreviewResponse struct {
	Vehicles []FleetPreviewEntry `json:"vehicles"`
}

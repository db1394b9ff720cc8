package repositories

import (
	"dispatch-route-service/internal/domain"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type DimensionsSeed struct {
	Length float64 `json:"length_m"`
	Width  float64 `json:"width_m"`
	Height float64 `json:"height_m"`
}

type VehicleSeed struct {
	Plate              string         `json:"plate"`
	Model              string         `json:"model"`
	Category           string         `json:"category"`
	Interior           DimensionsSeed `json:"interior"`
	VolumeLiters       float64        `json:"volume_liters"`
	WeightCapacityTons float64        `json:"weight_capacity_tons"`
	CostPerKm          float64        `json:"cost_per_km"`
	RentalValue        float64        `json:"rental_value"`
	DriverFixedCost    float64        `json:"driver_fixed_cost"`
	SlotCapacity       int            `json:"slot_capacity"`
	ReturnsToDepot     *bool          `json:"returns_to_depot"`
}

type ItemSeed struct {
	Name         string         `json:"name"`
	Code         string         `json:"code"`
	Dimensions   DimensionsSeed `json:"dimensions"`
	UnitWeightKg float64        `json:"unit_weight_kg"`
}

// CatalogSeed is the JSON layout shared by the seed file and the file-backed
// repository.
type CatalogSeed struct {
	Vehicles []VehicleSeed `json:"vehicles"`
	Items    []ItemSeed    `json:"items"`
}

func (d DimensionsSeed) toDomain() domain.Dimensions {
	return domain.Dimensions{Length: d.Length, Width: d.Width, Height: d.Height}
}

// Vehicles default to returning to the depot when the flag is omitted.
func (v VehicleSeed) toDomain() domain.Vehicle {
	returns := true
	if v.ReturnsToDepot != nil {
		returns = *v.ReturnsToDepot
	}
	return domain.Vehicle{
		Plate:              strings.TrimSpace(v.Plate),
		Model:              strings.TrimSpace(v.Model),
		Category:           strings.TrimSpace(v.Category),
		Interior:           v.Interior.toDomain(),
		VolumeLiters:       v.VolumeLiters,
		WeightCapacityTons: v.WeightCapacityTons,
		CostPerKm:          v.CostPerKm,
		RentalValue:        v.RentalValue,
		DriverFixedCost:    v.DriverFixedCost,
		SlotCapacity:       v.SlotCapacity,
		ReturnsToDepot:     returns,
	}
}

func (i ItemSeed) toDomain() domain.Item {
	return domain.Item{
		Name:         strings.TrimSpace(i.Name),
		Code:         strings.TrimSpace(i.Code),
		Dimensions:   i.Dimensions.toDomain(),
		UnitWeightKg: i.UnitWeightKg,
	}
}

// LoadCatalogSeed reads and checks a catalog JSON file.
func LoadCatalogSeed(path string) (CatalogSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CatalogSeed{}, fmt.Errorf("load catalog: read %q: %w", path, err)
	}

	var seed CatalogSeed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return CatalogSeed{}, fmt.Errorf("load catalog: parse json: %w", err)
	}

	plates := make(map[string]bool, len(seed.Vehicles))
	for i, v := range seed.Vehicles {
		plate := strings.TrimSpace(v.Plate)
		if plate == "" {
			return CatalogSeed{}, fmt.Errorf("load catalog: vehicle at index %d: plate cannot be empty", i+1)
		}
		if plates[plate] {
			return CatalogSeed{}, fmt.Errorf("load catalog: duplicate plate %q", plate)
		}
		plates[plate] = true
	}
	for i, it := range seed.Items {
		if strings.TrimSpace(it.Name) == "" {
			return CatalogSeed{}, fmt.Errorf("load catalog: item at index %d: name cannot be empty", i+1)
		}
	}

	return seed, nil
}

package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Box dimensions in meters.
type Dimensions struct {
	Length float64 `validate:"gte=0"`
	Width  float64 `validate:"gte=0"`
	Height float64 `validate:"gte=0"`
}

func (d Dimensions) Volume() float64 { return d.Length * d.Width * d.Height }

// Return the dimensions in ascending order so orientation does not matter.
func (d Dimensions) Sorted() [3]float64 {
	s := []float64{d.Length, d.Width, d.Height}
	sort.Float64s(s)
	return [3]float64{s[0], s[1], s[2]}
}

// FitsWithin reports whether a box with these dimensions fits inside outer,
// allowing any axis-aligned rotation.
func (d Dimensions) FitsWithin(outer Dimensions) bool {
	in, out := d.Sorted(), outer.Sorted()
	for i := range in {
		if in[i] > out[i] {
			return false
		}
	}
	return true
}

// A fleet vehicle as registered in the catalog.
// SlotCapacity may be left at zero, in which case it is derived from volume
// and weight capacity with a SlotBasis.
type Vehicle struct {
	Plate              string `validate:"required"`
	Model              string
	Category           string
	Interior           Dimensions
	VolumeLiters       float64 `validate:"gte=0"`
	WeightCapacityTons float64 `validate:"gte=0"`
	CostPerKm          float64 `validate:"gte=0"`
	RentalValue        float64 `validate:"gte=0"`
	DriverFixedCost    float64 `validate:"gte=0"`
	SlotCapacity       int     `validate:"gte=0"`
	ReturnsToDepot     bool
}

// Return the label used in reports, e.g. "ABC1D23 (Hilux)".
func (v Vehicle) DisplayName() string {
	if strings.TrimSpace(v.Model) == "" {
		return v.Plate
	}
	return fmt.Sprintf("%s (%s)", v.Plate, v.Model)
}

// Return rental plus driver cost spread over the monthly operating hours.
func (v Vehicle) HourlyFixedCost(monthlyHours float64) float64 {
	if monthlyHours <= 0 {
		return 0
	}
	return (v.RentalValue + v.DriverFixedCost) / monthlyHours
}

// InCategory reports whether the vehicle category matches one of cats, ignoring case.
func (v Vehicle) InCategory(cats []string) bool {
	c := strings.TrimSpace(v.Category)
	for _, cat := range cats {
		if strings.EqualFold(c, strings.TrimSpace(cat)) {
			return true
		}
	}
	return false
}

// SlotBasis converts volume and weight into the integer slot unit shared by
// vehicles and items.
type SlotBasis struct {
	VolumeM3 float64
	WeightKg float64
}

// Return the slot capacity of v. A positive precomputed SlotCapacity wins;
// otherwise volume slots and weight slots (after removing bufferKg) are averaged
// and rounded down.
func (b SlotBasis) VehicleSlots(v Vehicle, bufferKg float64) int {
	if v.SlotCapacity > 0 {
		return v.SlotCapacity
	}
	return b.RawVehicleSlots(v, bufferKg)
}

// Return the slot capacity derived from volume and weight only.
func (b SlotBasis) RawVehicleSlots(v Vehicle, bufferKg float64) int {
	if b.VolumeM3 <= 0 || b.WeightKg <= 0 {
		return 0
	}
	volSlots := math.Floor(v.VolumeLiters / 1000 / b.VolumeM3)
	weightSlots := math.Floor((v.WeightCapacityTons*1000 - bufferKg) / b.WeightKg)

	slots := int(math.Floor((volSlots + weightSlots) / 2))
	if slots < 0 {
		return 0
	}
	return slots
}

// Return the slot cost of one unit with the given volume and weight.
func (b SlotBasis) ItemSlots(volumeM3, weightKg float64) int {
	if b.VolumeM3 <= 0 || b.WeightKg <= 0 {
		return 0
	}
	volSlots := math.Ceil(volumeM3 / b.VolumeM3)
	weightSlots := math.Ceil(weightKg / b.WeightKg)
	return int(math.Ceil((volSlots + weightSlots) / 2))
}

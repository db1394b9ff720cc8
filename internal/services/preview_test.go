package services

import (
	"dispatch-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewFleetReportsBothBuffers(t *testing.T) {
	raw := domain.Vehicle{Plate: "CCC3C33", Model: "Hilux", Category: "PICKUP", VolumeLiters: 3000, WeightCapacityTons: 1, RentalValue: 900, DriverFixedCost: 900}
	fixed := testVehicle(true)

	out := PreviewFleet(testConfig(), []domain.Vehicle{raw, fixed})
	require.Len(t, out, 2)

	assert.Equal(t, "CCC3C33 (Hilux)", out[0].Label)
	assert.Equal(t, 54, out[0].SolverSlots)
	assert.Equal(t, 52, out[0].PreviewSlots)
	assert.InDelta(t, 10, out[0].HourlyCost, 1e-9)

	// a precomputed capacity is what the solver sees
	assert.Equal(t, 10, out[1].SolverSlots)
	assert.Equal(t, 0, out[1].PreviewSlots)
	assert.True(t, out[1].ReturnsToDepot)
}

package services

import (
	"context"
	"dispatch-route-service/internal/adapters/distance"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

const boxName = "BOX"

var testPairs = []distance.MockPair{
	{From: "CD", To: "A", Km: 10, Hours: 0.25},
	{From: "CD", To: "B", Km: 20, Hours: 0.5},
	{From: "A", To: "B", Km: 12, Hours: 0.3},
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Calendar.Timezone = "UTC"
	return cfg
}

func testBox() domain.Item {
	return domain.Item{
		Name:         boxName,
		Code:         "BX-01",
		Dimensions:   domain.Dimensions{Length: 0.5, Width: 0.4, Height: 0.25},
		UnitWeightKg: 10,
	}
}

func testVehicle(returns bool) domain.Vehicle {
	return domain.Vehicle{
		Plate:          "AAA1A11",
		Model:          "Daily",
		Category:       "VAN",
		Interior:       domain.Dimensions{Length: 2, Width: 1.5, Height: 1.5},
		CostPerKm:      2,
		RentalValue:    1800,
		SlotCapacity:   10,
		ReturnsToDepot: returns,
	}
}

// Two deliveries of one-slot boxes: 4 at A (priority 0) and 3 at B (priority 1).
func testTasks() []domain.Task {
	return []domain.Task{
		{Location: "A", Operation: domain.Delivery, Item: boxName, Quantity: 4, Priority: domain.PriorityImmediate, Code: "BX-01"},
		{Location: "B", Operation: domain.Delivery, Item: boxName, Quantity: 3, Priority: domain.PriorityNormal, Code: "BX-01"},
	}
}

func testInput(returns bool) NormalizeInput {
	in := NormalizeInput{
		Vehicles: []domain.Vehicle{testVehicle(returns)},
		Tasks:    testTasks(),
		Catalog:  domain.NewCatalog([]domain.Item{testBox()}, nil),
	}
	if !returns {
		in.FinalDestinations = map[string]string{"AAA1A11": "B"}
	}
	return in
}

func buildScenario(t *testing.T, returns bool) *BuiltModel {
	t.Helper()
	p, err := Normalize(context.Background(), testConfig(), testInput(returns), distance.NewMockDistanceProvider(testPairs))
	require.NoError(t, err)
	return BuildModel(p)
}

// closedTourValues is the optimal assignment CD -> A -> B -> CD on trip 1.
func closedTourValues() map[string]float64 {
	return map[string]float64{
		"X_0_1_0_1": 1, "X_1_2_0_1": 1, "X_2_0_0_1": 1,
		"F_0_1_0_1": 7, "F_1_2_0_1": 3,
		"f_0_1_0_1": 4, "f_0_2_0_1": 3,
		"T_1_0_1": 0.25, "T_2_0_1": 1.55,
		"T0_0_2": 4.05,
		"Ttot_0": 3.05,
		"U_0":    1,
	}
}

// openPathValues is CD -> A -> B for a vehicle that stays at B.
func openPathValues() map[string]float64 {
	return map[string]float64{
		"X_0_1_0_1": 1, "X_1_2_0_1": 1,
		"F_0_1_0_1": 7, "F_1_2_0_1": 3,
		"f_0_1_0_1": 4, "f_0_2_0_1": 3,
		"T_1_0_1": 0.25, "T_2_0_1": 1.55,
		"Ttot_0": 2.55,
		"U_0":    1,
	}
}

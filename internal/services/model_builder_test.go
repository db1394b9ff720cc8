package services

import (
	"context"
	"dispatch-route-service/internal/adapters/distance"
	"dispatch-route-service/internal/milp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func violationNames(vs []milp.Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Name)
	}
	return out
}

func hasViolation(vs []milp.Violation, prefix string) bool {
	for _, v := range vs {
		if strings.HasPrefix(v.Name, prefix) {
			return true
		}
	}
	return false
}

func TestBuildModelDeclaresVariables(t *testing.T) {
	b := buildScenario(t, true)
	m := b.Model

	// 3 nodes, 1 vehicle, 2 trips, 2 demands
	arcs := 3 * 2 * 1 * 2
	want := 2*arcs + 3*2 + 2 + 2*2*2 + 2
	assert.Equal(t, want, m.NumVars())

	for _, name := range []string{"X_0_1_0_1", "F_2_0_0_2", "T_1_0_2", "T0_0_1", "f_0_2_0_1", "A_0_1_0_2", "U_0", "Ttot_0"} {
		_, ok := m.VarByName(name)
		assert.True(t, ok, name)
	}
	_, ok := m.VarByName("X_1_1_0_1")
	assert.False(t, ok, "no self arcs")

	v, _ := m.VarByName("f_0_1_0_1")
	assert.Equal(t, milp.Integer, m.Vars[v].Kind)
	assert.Equal(t, 4.0, m.Vars[v].Upper)
}

func TestClosedTourIsFeasibleWithExpectedObjective(t *testing.T) {
	b := buildScenario(t, true)
	values := b.Model.ValuesFromNames(closedTourValues())

	vs := b.Model.Evaluate(values, 1e-6)
	require.Empty(t, vs, violationNames(vs))

	// 10/h * 3.05 h + 2/km * (10 + 12 + 20) km, no lateness
	assert.InDelta(t, 114.5, b.Model.ObjectiveValue(values), 1e-9)
}

func TestClosedTourRejectsBrokenAssignments(t *testing.T) {
	tests := []struct {
		name   string
		change map[string]float64
		want   string
	}{
		{"partial demand", map[string]float64{"f_0_2_0_1": 2}, "demand_0_2"},
		{"flow not conserved", map[string]float64{"F_0_1_0_1": 5}, "conserve_1_0_1"},
		{"open circuit", map[string]float64{"X_2_0_0_1": 0}, "balance_2_0_1"},
		{"unused vehicle", map[string]float64{"U_0": 0}, "activate_0"},
		{"second trip before first", map[string]float64{"T0_0_2": 1}, "chain_2_0_2"},
		{"missed return leg", map[string]float64{"Ttot_0": 2.6}, "span_back_2_0_1"},
		{"serve without visiting", map[string]float64{"X_0_1_0_1": 0, "X_0_2_0_1": 1}, "visit_0_1_0_1"},
		{"late without penalty", map[string]float64{"T_1_0_1": 9, "T_2_0_1": 10.3}, "late_0_1_0_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := buildScenario(t, true)
			named := closedTourValues()
			for k, v := range tt.change {
				named[k] = v
			}

			vs := b.Model.Evaluate(b.Model.ValuesFromNames(named), 1e-6)
			assert.True(t, hasViolation(vs, tt.want), "want %s in %v", tt.want, violationNames(vs))
		})
	}
}

func TestOpenPathEndsAtFinalDestination(t *testing.T) {
	b := buildScenario(t, false)
	values := b.Model.ValuesFromNames(openPathValues())

	vs := b.Model.Evaluate(values, 1e-6)
	require.Empty(t, vs, violationNames(vs))

	// 10/h * 2.55 h + 2/km * (10 + 12) km
	assert.InDelta(t, 69.5, b.Model.ObjectiveValue(values), 1e-9)
}

func TestOpenPathRejectsReturnAndWrongTerminal(t *testing.T) {
	tests := []struct {
		name   string
		change map[string]float64
		want   string
	}{
		{"returns to depot", map[string]float64{"X_2_0_0_1": 1}, "noreturn_0"},
		{"leaves final destination", map[string]float64{"X_2_1_0_1": 1}, "final_out_0"},
		{"second trip", map[string]float64{"X_0_1_0_2": 1}, "single_trip_0_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := buildScenario(t, false)
			named := openPathValues()
			for k, v := range tt.change {
				named[k] = v
			}

			vs := b.Model.Evaluate(b.Model.ValuesFromNames(named), 1e-6)
			assert.True(t, hasViolation(vs, tt.want), "want %s in %v", tt.want, violationNames(vs))
		})
	}
}

func TestOpenPathForbidsPickups(t *testing.T) {
	b := buildScenario(t, false)
	p := b.Problem

	// turn B into a pickup and rebuild
	p.Demands[1].Demand.Kind = "pickup"
	b = BuildModel(p)

	found := false
	for _, c := range b.Model.Constraints {
		if c.Name == "nopickup_0_2_0_1" {
			found = true
			assert.Equal(t, milp.Equal, c.Sense)
			assert.Equal(t, 0.0, c.RHS)
		}
	}
	assert.True(t, found)
}

func TestLongItemCapOnlyWhenLongItemsPresent(t *testing.T) {
	b := buildScenario(t, true)
	for _, c := range b.Model.Constraints {
		assert.False(t, strings.HasPrefix(c.Name, "long_"), c.Name)
	}

	p := b.Problem
	p.Services[0].Long = true
	b = BuildModel(p)

	var caps int
	for _, c := range b.Model.Constraints {
		if strings.HasPrefix(c.Name, "long_") {
			caps++
			assert.Equal(t, float64(p.LongItemCap), c.RHS)
			assert.Len(t, c.Terms, 2)
		}
	}
	assert.Equal(t, 2, caps)
}

// 8 boxes to A and 4 to B exceed the 10-slot van, so the demand needs two trips.
func buildOverCapacity(t *testing.T) *BuiltModel {
	t.Helper()
	in := testInput(true)
	in.Tasks[0].Quantity = 8
	in.Tasks[1].Quantity = 4

	p, err := Normalize(context.Background(), testConfig(), in, distance.NewMockDistanceProvider(testPairs))
	require.NoError(t, err)
	require.Equal(t, 12, p.TotalSlots)
	require.Equal(t, 3, p.MaxTrips)
	return BuildModel(p)
}

// twoTripValues serves A on trip 1 and B on trip 2, with a one-hour resupply between.
func twoTripValues() map[string]float64 {
	return map[string]float64{
		"X_0_1_0_1": 1, "X_1_0_0_1": 1,
		"F_0_1_0_1": 8, "f_0_1_0_1": 8,
		"T_1_0_1": 0.25,
		"T0_0_2":  2.5,
		"X_0_2_0_2": 1, "X_2_0_0_2": 1,
		"F_0_2_0_2": 4, "f_0_2_0_2": 4,
		"T_2_0_2": 3,
		"T0_0_3":  5.5,
		"Ttot_0":  4.5,
		"U_0":     1,
	}
}

func TestOverCapacityDemandUsesSecondTrip(t *testing.T) {
	b := buildOverCapacity(t)
	values := b.Model.ValuesFromNames(twoTripValues())

	vs := b.Model.Evaluate(values, 1e-6)
	require.Empty(t, vs, violationNames(vs))

	// 10/h * 4.5 h + 2/km * (20 + 40) km
	assert.InDelta(t, 165, b.Model.ObjectiveValue(values), 1e-9)

	plans := Decode(b, &milp.Solution{Status: milp.StatusOptimal, Values: values})
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Trips, 2)
	assert.Equal(t, "CD -> A -> CD", plans[0].Trips[0].Path)
	assert.Equal(t, "CD -> B -> CD", plans[0].Trips[1].Path)
}

func TestOverCapacityDemandCannotShareOneTrip(t *testing.T) {
	b := buildOverCapacity(t)
	named := twoTripValues()
	named["f_0_2_0_1"], named["f_0_2_0_2"] = 4, 0

	vs := b.Model.Evaluate(b.Model.ValuesFromNames(named), 1e-6)
	assert.True(t, hasViolation(vs, "tripcap_0_1"), violationNames(vs))
}

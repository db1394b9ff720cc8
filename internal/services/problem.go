package services

import "dispatch-route-service/internal/domain"

// Problem is the solver-ready snapshot of one optimization request.
// Node 0 is the depot. It is built by Normalize and never mutated afterwards.
type Problem struct {
	Nodes        []domain.Location
	DistanceKm   [][]float64
	TravelHours  [][]float64
	ServiceHours []float64

	Vehicles []VehicleParams
	Services []ServiceParams
	Demands  []domain.DemandEntry
	// Compatible[k][s] reports whether vehicle k can carry service s.
	Compatible [][]bool

	MaxTrips      int
	TotalSlots    int
	LongItemCap   int
	ResupplyHours float64
	BigM          BigM

	byNode [][]int
}

type VehicleParams struct {
	Vehicle    domain.Vehicle
	Capacity   int
	HourlyCost float64
	// FinalNode is the node where a non-returning vehicle must end, or -1.
	FinalNode int
}

func (v VehicleParams) Returns() bool { return v.Vehicle.ReturnsToDepot }

type ServiceParams struct {
	Item            domain.Item
	Known           bool
	Slots           int
	Long            bool
	DeliveryPenalty float64
	PickupPenalty   float64
}

// Penalty returns the lateness rate for a demand of the given kind.
func (s ServiceParams) Penalty(kind domain.Operation) float64 {
	if kind == domain.Pickup {
		return s.PickupPenalty
	}
	return s.DeliveryPenalty
}

// DemandsAt returns indexes into Demands for entries located at node n.
func (p *Problem) DemandsAt(n int) []int {
	if n < 0 || n >= len(p.byNode) {
		return nil
	}
	return p.byNode[n]
}

func (p *Problem) NumNodes() int { return len(p.Nodes) }

func (p *Problem) indexDemands() {
	p.byNode = make([][]int, len(p.Nodes))
	for d, e := range p.Demands {
		p.byNode[e.Node] = append(p.byNode[e.Node], d)
	}
}

// UnservableServices lists services with demand that no vehicle can carry.
func (p *Problem) UnservableServices() []string {
	seen := make(map[int]bool)
	var out []string
	for _, e := range p.Demands {
		if seen[e.Service] {
			continue
		}
		seen[e.Service] = true

		ok := false
		for k := range p.Vehicles {
			if p.Compatible[k][e.Service] {
				ok = true
				break
			}
		}
		if !ok {
			out = append(out, p.Services[e.Service].Item.Name)
		}
	}
	return out
}

func (p *Problem) maxServiceHours() float64 {
	var m float64
	for _, st := range p.ServiceHours {
		if st > m {
			m = st
		}
	}
	return m
}

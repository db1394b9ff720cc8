package services

import (
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/milp"
	"fmt"
	"strings"
)

// Assigned quantities at or below this value are treated as zero.
const quantityTolerance = 1e-5

// Decode rebuilds the routes of every used vehicle from the arc variables.
// Timestamps are left zero; the scheduler fills them.
func Decode(b *BuiltModel, sol *milp.Solution) []domain.VehiclePlan {
	if !sol.HasValues() {
		return nil
	}
	p, v := b.Problem, &b.vars

	plans := make([]domain.VehiclePlan, 0, len(p.Vehicles))
	for k, vp := range p.Vehicles {
		if sol.Value(v.Used(k)) < 0.5 {
			continue
		}

		plan := domain.VehiclePlan{
			Plate:          vp.Vehicle.Plate,
			Label:          vp.Vehicle.DisplayName(),
			ReturnsToDepot: vp.Returns(),
			TotalHours:     sol.Value(v.TotalTime(k)),
		}
		for r := 0; r < v.trips; r++ {
			trip, ok := b.decodeTrip(sol, k, r)
			if !ok {
				continue
			}
			trip.Index = len(plan.Trips) + 1
			plan.Trips = append(plan.Trips, trip)
		}
		if len(plan.Trips) > 0 {
			plans = append(plans, plan)
		}
	}
	return plans
}

// successors returns next[i] = j for every selected arc of trip (k, r), or -1.
func (b *BuiltModel) successors(sol *milp.Solution, k, r int) ([]int, int) {
	N := b.vars.nodes
	next := make([]int, N)
	arcs := 0
	for i := 0; i < N; i++ {
		next[i] = -1
		for j := 0; j < N; j++ {
			if i != j && sol.Value(b.vars.X(i, j, k, r)) > 0.5 {
				next[i] = j
				arcs++
			}
		}
	}
	return next, arcs
}

func (b *BuiltModel) decodeTrip(sol *milp.Solution, k, r int) (domain.Trip, bool) {
	p, v := b.Problem, &b.vars
	next, arcs := b.successors(sol, k, r)
	if arcs == 0 || next[0] < 0 {
		return domain.Trip{}, false
	}

	trip := domain.Trip{DepartHours: sol.Value(v.T0(k, r))}
	names := []string{p.Nodes[0].Name}
	seen := make([]bool, len(next))
	prev, prevDepart := 0, trip.DepartHours

	for cur := next[0]; cur >= 0 && !seen[cur]; cur = next[cur] {
		seen[cur] = true
		names = append(names, p.Nodes[cur].Name)

		if cur == 0 {
			arrive := prevDepart + p.TravelHours[prev][0]
			trip.Closed = true
			trip.Stops = append(trip.Stops, domain.Stop{
				Node:        0,
				Location:    p.Nodes[0].Name,
				DistanceKm:  p.DistanceKm[prev][0],
				TravelHours: p.TravelHours[prev][0],
				ArriveHours: arrive,
				DepartHours: arrive,
			})
			break
		}

		arrive := sol.Value(v.T(cur, k, r))
		stop := domain.Stop{
			Node:        cur,
			Location:    p.Nodes[cur].Name,
			DistanceKm:  p.DistanceKm[prev][cur],
			TravelHours: p.TravelHours[prev][cur],
			ArriveHours: arrive,
			DepartHours: arrive + p.ServiceHours[cur],
			Services:    b.servicesAt(sol, cur, k, r),
		}
		trip.Stops = append(trip.Stops, stop)
		prev, prevDepart = cur, stop.DepartHours
	}

	trip.Path = strings.Join(names, " -> ")
	return trip, true
}

func (b *BuiltModel) servicesAt(sol *milp.Solution, n, k, r int) []domain.ServiceRecord {
	p, v := b.Problem, &b.vars
	var out []domain.ServiceRecord
	for _, d := range p.DemandsAt(n) {
		qty := sol.Value(v.Qty(d, k, r))
		if qty <= quantityTolerance {
			continue
		}
		entry := p.Demands[d]
		item := p.Services[entry.Service].Item
		out = append(out, domain.ServiceRecord{
			Item:        item.Name,
			Code:        entry.Code,
			Kind:        entry.Demand.Kind,
			Quantity:    qty,
			Description: describeService(entry.Demand.Kind, qty, item.Name),
			DelayHours:  sol.Value(v.Late(d, k, r)),
		})
	}
	return out
}

func describeService(kind domain.Operation, qty float64, item string) string {
	verb := "Delivery"
	if kind == domain.Pickup {
		verb = "Pickup"
	}
	return fmt.Sprintf("%s of %.1f unit(s) of '%s'", verb, qty, item)
}

// Costs splits the objective value of sol into its four components.
func Costs(b *BuiltModel, sol *milp.Solution) domain.CostBreakdown {
	var c domain.CostBreakdown
	if !sol.HasValues() {
		return c
	}
	p, v := b.Problem, &b.vars

	for k, vp := range p.Vehicles {
		c.Fixed += vp.HourlyCost * sol.Value(v.TotalTime(k))
		for r := 0; r < v.trips; r++ {
			for i := 0; i < v.nodes; i++ {
				for j := 0; j < v.nodes; j++ {
					if i != j {
						c.Variable += p.DistanceKm[i][j] * vp.Vehicle.CostPerKm * sol.Value(v.X(i, j, k, r))
					}
				}
			}
		}
	}

	for d, e := range p.Demands {
		rate := p.Services[e.Service].Penalty(e.Demand.Kind)
		for k := 0; k < v.vehicles; k++ {
			for r := 0; r < v.trips; r++ {
				penalty := rate * sol.Value(v.Late(d, k, r))
				if e.Demand.Kind == domain.Pickup {
					c.PickupPenalty += penalty
				} else {
					c.DeliveryPenalty += penalty
				}
			}
		}
	}

	c.Total = c.Fixed + c.Variable + c.DeliveryPenalty + c.PickupPenalty
	return c
}

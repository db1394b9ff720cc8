package services

import (
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/milp"
	"fmt"
)

// A vehicle must be marked used if it traverses any arc.
func (b *BuiltModel) addActivation() {
	v, M := &b.vars, b.Problem.BigM.Duration
	for k := 0; k < v.vehicles; k++ {
		var e milp.Expr
		for r := 0; r < v.trips; r++ {
			e.AddExpr(b.tripArcs(k, r), 1)
		}
		e.Add(v.Used(k), -M)
		b.Model.AddConstraint(fmt.Sprintf("activate_%d", k), e, milp.LessEq, 0)
	}
}

// Every demand is served in full, possibly split across vehicles and trips.
func (b *BuiltModel) addDemand() {
	v := &b.vars
	for d, entry := range b.Problem.Demands {
		var e milp.Expr
		for k := 0; k < v.vehicles; k++ {
			for r := 0; r < v.trips; r++ {
				e.Add(v.Qty(d, k, r), 1)
			}
		}
		b.Model.AddConstraint(fmt.Sprintf("demand_%d_%d", entry.Service, entry.Node), e, milp.Equal, float64(entry.Demand.Quantity))
	}
}

// Quantities need a compatible vehicle that visits the node on that trip.
// Vehicles that end in the field never pick up.
func (b *BuiltModel) addServiceLinks() {
	p, v, M := b.Problem, &b.vars, b.Problem.BigM.Compat
	for d, entry := range p.Demands {
		for k, vp := range p.Vehicles {
			compat := 0.0
			if p.Compatible[k][entry.Service] {
				compat = 1
			}
			for r := 0; r < v.trips; r++ {
				suffix := fmt.Sprintf("%d_%d_%d_%d", entry.Service, entry.Node, k, r+1)

				var c milp.Expr
				c.Add(v.Qty(d, k, r), 1)
				b.Model.AddConstraint("compat_"+suffix, c, milp.LessEq, M*compat)

				var link milp.Expr
				link.Add(v.Qty(d, k, r), 1)
				link.AddExpr(b.visit(entry.Node, k, r), -M)
				b.Model.AddConstraint("visit_"+suffix, link, milp.LessEq, 0)

				if !vp.Returns() && entry.Demand.IsPickup() {
					var np milp.Expr
					np.Add(v.Qty(d, k, r), 1)
					b.Model.AddConstraint("nopickup_"+suffix, np, milp.Equal, 0)
				}
			}
		}
	}
}

func (b *BuiltModel) addLongItemCap() {
	p, v := b.Problem, &b.vars
	var long []int
	for d, entry := range p.Demands {
		if p.Services[entry.Service].Long {
			long = append(long, d)
		}
	}
	if len(long) == 0 {
		return
	}

	for k := 0; k < v.vehicles; k++ {
		for r := 0; r < v.trips; r++ {
			var e milp.Expr
			for _, d := range long {
				e.Add(v.Qty(d, k, r), 1)
			}
			b.Model.AddConstraint(fmt.Sprintf("long_%d_%d", k, r+1), e, milp.LessEq, float64(p.LongItemCap))
		}
	}
}

// Slot flow along arcs: bounded by capacity, covering deliveries, leaving
// room for pickups and conserved at every node.
func (b *BuiltModel) addFlow() {
	p, v, M := b.Problem, &b.vars, b.Problem.BigM.Flow
	N := v.nodes

	for k, vp := range p.Vehicles {
		Q := float64(vp.Capacity)
		for r := 0; r < v.trips; r++ {
			for i := 0; i < N; i++ {
				for j := 0; j < N; j++ {
					if i == j {
						continue
					}
					var e milp.Expr
					e.Add(v.F(i, j, k, r), 1).Add(v.X(i, j, k, r), -Q)
					b.Model.AddConstraint(fmt.Sprintf("arccap_%d_%d_%d_%d", i, j, k, r+1), e, milp.LessEq, 0)
				}
			}

			for n := 1; n < N; n++ {
				deliveries, hasDeliveries := b.slotsAt(n, k, r, domain.Delivery)
				pickups, hasPickups := b.slotsAt(n, k, r, domain.Pickup)

				for i := 0; i < N; i++ {
					if i == n {
						continue
					}
					suffix := fmt.Sprintf("%d_%d_%d_%d", i, n, k, r+1)

					if hasDeliveries {
						var e milp.Expr
						e.Add(v.F(i, n, k, r), 1).Add(v.X(i, n, k, r), -M)
						e.AddExpr(deliveries, -1)
						b.Model.AddConstraint("cover_"+suffix, e, milp.GreaterEq, -M)
					}
					if hasPickups {
						var e milp.Expr
						e.AddExpr(pickups, 1)
						e.Add(v.F(i, n, k, r), 1).Add(v.X(i, n, k, r), M)
						e.AddExpr(deliveries, -1)
						b.Model.AddConstraint("room_"+suffix, e, milp.LessEq, Q+M)
					}
				}

				var cons milp.Expr
				for i := 0; i < N; i++ {
					if i != n {
						cons.Add(v.F(i, n, k, r), 1)
						cons.Add(v.F(n, i, k, r), -1)
					}
				}
				signed, _ := b.slotsAt(n, k, r, "")
				cons.AddExpr(signed, -1)
				b.Model.AddConstraint(fmt.Sprintf("conserve_%d_%d_%d", n, k, r+1), cons, milp.Equal, 0)
			}

			var load milp.Expr
			for j := 1; j < N; j++ {
				load.Add(v.F(0, j, k, r), 1)
			}
			for n := 1; n < N; n++ {
				deliveries, _ := b.slotsAt(n, k, r, domain.Delivery)
				load.AddExpr(deliveries, -1)
			}
			b.Model.AddConstraint(fmt.Sprintf("depotload_%d_%d", k, r+1), load, milp.GreaterEq, 0)
		}
	}
}

// Closed circuits for returning vehicles; a single open path from the depot
// for vehicles that stay in the field.
func (b *BuiltModel) addTopology() {
	p, v := b.Problem, &b.vars
	N := v.nodes

	for k, vp := range p.Vehicles {
		var allDepartures, allReturns milp.Expr

		for r := 0; r < v.trips; r++ {
			departures := b.leave(0, k, r)
			returns := b.visit(0, k, r)
			allDepartures.AddExpr(departures, 1)
			allReturns.AddExpr(returns, 1)

			b.Model.AddConstraint(fmt.Sprintf("depart_once_%d_%d", k, r+1), departures, milp.LessEq, 1)

			if vp.Returns() {
				for n := 1; n < N; n++ {
					e := b.visit(n, k, r)
					e.AddExpr(b.leave(n, k, r), -1)
					b.Model.AddConstraint(fmt.Sprintf("balance_%d_%d_%d", n, k, r+1), e, milp.Equal, 0)
				}

				var pair milp.Expr
				pair.AddExpr(departures, 1).AddExpr(returns, -1)
				b.Model.AddConstraint(fmt.Sprintf("pair_%d_%d", k, r+1), pair, milp.Equal, 0)
				continue
			}

			var imbalance milp.Expr
			for n := 1; n < N; n++ {
				in, out := b.visit(n, k, r), b.leave(n, k, r)
				imbalance.AddExpr(in, 1).AddExpr(out, -1)

				var entered milp.Expr
				entered.AddExpr(out, 1).AddExpr(in, -1)
				b.Model.AddConstraint(fmt.Sprintf("entered_%d_%d_%d", n, k, r+1), entered, milp.LessEq, 0)
			}
			imbalance.AddExpr(departures, -1)
			b.Model.AddConstraint(fmt.Sprintf("terminal_%d_%d", k, r+1), imbalance, milp.Equal, 0)
		}

		if !vp.Returns() {
			b.Model.AddConstraint(fmt.Sprintf("depart_total_%d", k), allDepartures, milp.LessEq, 1)
			b.Model.AddConstraint(fmt.Sprintf("noreturn_%d", k), allReturns, milp.Equal, 0)
		}
	}
}

// A field vehicle that departs must end at its designated location.
func (b *BuiltModel) addFinalDestination() {
	p, v := b.Problem, &b.vars
	for k, vp := range p.Vehicles {
		if vp.Returns() || vp.FinalNode < 0 {
			continue
		}
		final := vp.FinalNode

		var arrive, leave milp.Expr
		for r := 0; r < v.trips; r++ {
			arrive.AddExpr(b.visit(final, k, r), 1)
			arrive.AddExpr(b.leave(0, k, r), -1)
			leave.AddExpr(b.leave(final, k, r), 1)
		}
		b.Model.AddConstraint(fmt.Sprintf("final_in_%d", k), arrive, milp.Equal, 0)
		b.Model.AddConstraint(fmt.Sprintf("final_out_%d", k), leave, milp.Equal, 0)
	}
}

// Arrival times propagate along selected arcs, which also rules out cycles
// that do not pass through the depot.
func (b *BuiltModel) addSequencing() {
	p, v := b.Problem, &b.vars
	N, mTime, mSpan := v.nodes, p.BigM.Time, p.BigM.Span

	for k := 0; k < v.vehicles; k++ {
		for r := 0; r < v.trips; r++ {
			for j := 1; j < N; j++ {
				var e milp.Expr
				e.Add(v.T(j, k, r), 1).Add(v.T0(k, r), -1).Add(v.X(0, j, k, r), -mTime)
				b.Model.AddConstraint(fmt.Sprintf("seq_0_%d_%d_%d", j, k, r+1), e, milp.GreaterEq, p.TravelHours[0][j]-mTime)
			}

			for i := 1; i < N; i++ {
				for j := 1; j < N; j++ {
					if i == j {
						continue
					}
					var e milp.Expr
					e.Add(v.T(j, k, r), 1).Add(v.T(i, k, r), -1).Add(v.X(i, j, k, r), -mSpan)
					rhs := p.ServiceHours[i] + p.TravelHours[i][j] - mSpan
					b.Model.AddConstraint(fmt.Sprintf("seq_%d_%d_%d_%d", i, j, k, r+1), e, milp.GreaterEq, rhs)
				}
			}
		}
	}
}

// Trips start in order: trip 1 at time zero, later trips after the previous
// return plus the resupply buffer. Trip r+1 is used only if trip r is.
func (b *BuiltModel) addTripChaining() {
	p, v := b.Problem, &b.vars
	N, mTime := v.nodes, p.BigM.Time

	for k, vp := range p.Vehicles {
		var start milp.Expr
		start.Add(v.T0(k, 0), 1)
		b.Model.AddConstraint(fmt.Sprintf("start_%d", k), start, milp.Equal, 0)

		if !vp.Returns() {
			for r := 1; r < v.trips; r++ {
				b.Model.AddConstraint(fmt.Sprintf("single_trip_%d_%d", k, r+1), b.tripArcs(k, r), milp.Equal, 0)
			}
			continue
		}

		for r := 0; r+1 < v.trips; r++ {
			for n := 1; n < N; n++ {
				var e milp.Expr
				e.Add(v.T0(k, r+1), 1).Add(v.T(n, k, r), -1).Add(v.X(n, 0, k, r), -mTime)
				rhs := p.ServiceHours[n] + p.TravelHours[n][0] + p.ResupplyHours - mTime
				b.Model.AddConstraint(fmt.Sprintf("chain_%d_%d_%d", n, k, r+2), e, milp.GreaterEq, rhs)
			}

			order := b.tripArcs(k, r+1)
			order.AddExpr(b.tripArcs(k, r), -1)
			b.Model.AddConstraint(fmt.Sprintf("order_%d_%d", k, r+2), order, milp.LessEq, 0)
		}
	}
}

// Lateness is charged only when the node is visited on that trip.
func (b *BuiltModel) addDelays() {
	p, v, M := b.Problem, &b.vars, b.Problem.BigM.Delay
	for d, entry := range p.Demands {
		for k := 0; k < v.vehicles; k++ {
			for r := 0; r < v.trips; r++ {
				var e milp.Expr
				e.Add(v.T(entry.Node, k, r), 1).Add(v.Late(d, k, r), -1)
				e.AddExpr(b.visit(entry.Node, k, r), M)
				name := fmt.Sprintf("late_%d_%d_%d_%d", entry.Service, entry.Node, k, r+1)
				b.Model.AddConstraint(name, e, milp.LessEq, entry.DeadlineHours+M)
			}
		}
	}
}

// Total operating time covers every completed visit and, for returning
// vehicles, the drive back to the depot.
func (b *BuiltModel) addDuration() {
	p, v, M := b.Problem, &b.vars, b.Problem.BigM.Duration
	N := v.nodes

	for k, vp := range p.Vehicles {
		for r := 0; r < v.trips; r++ {
			for n := 1; n < N; n++ {
				var e milp.Expr
				e.Add(v.TotalTime(k), 1).Add(v.T(n, k, r), -1)
				e.AddExpr(b.visit(n, k, r), -M)
				b.Model.AddConstraint(fmt.Sprintf("span_%d_%d_%d", n, k, r+1), e, milp.GreaterEq, p.ServiceHours[n]-M)

				if vp.Returns() {
					var back milp.Expr
					back.Add(v.TotalTime(k), 1).Add(v.T(n, k, r), -1).Add(v.X(n, 0, k, r), -M)
					rhs := p.ServiceHours[n] + p.TravelHours[n][0] - M
					b.Model.AddConstraint(fmt.Sprintf("span_back_%d_%d_%d", n, k, r+1), back, milp.GreaterEq, rhs)
				}
			}
		}

		var bound milp.Expr
		bound.Add(v.TotalTime(k), 1).Add(v.Used(k), -M)
		b.Model.AddConstraint(fmt.Sprintf("span_max_%d", k), bound, milp.LessEq, 0)
	}
}

// Safety net over the flow formulation: the slots served on a trip fit the vehicle.
func (b *BuiltModel) addTripCapacity() {
	p, v := b.Problem, &b.vars
	for k, vp := range p.Vehicles {
		for r := 0; r < v.trips; r++ {
			var e milp.Expr
			for d, entry := range p.Demands {
				e.Add(v.Qty(d, k, r), float64(p.Services[entry.Service].Slots))
			}
			b.Model.AddConstraint(fmt.Sprintf("tripcap_%d_%d", k, r+1), e, milp.LessEq, float64(vp.Capacity))
		}
	}
}

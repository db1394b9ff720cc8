package services

import (
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/milp"
	"fmt"
	"math"
)

// BuiltModel pairs a MILP with the variable layout needed to read a solution.
type BuiltModel struct {
	Model   *milp.Model
	Problem *Problem
	vars    modelVars
}

// modelVars stores variables in dense slices. Trips are 0-based internally and
// 1-based in variable names.
type modelVars struct {
	nodes, vehicles, trips, demands int

	x     []milp.Var // [k][r][i][j], -1 on the diagonal
	flow  []milp.Var // same layout as x
	t     []milp.Var // [k][r][n]
	t0    []milp.Var // [k][r]
	f     []milp.Var // [d][k][r]
	a     []milp.Var // [d][k][r]
	u     []milp.Var // [k]
	total []milp.Var // [k]
}

func (v *modelVars) arc(i, j, k, r int) int { return ((k*v.trips+r)*v.nodes+i)*v.nodes + j }
func (v *modelVars) node(n, k, r int) int { return (k*v.trips+r)*v.nodes + n }
func (v *modelVars) trip(k, r int) int { return k*v.trips + r }
func (v *modelVars) serve(d, k, r int) int { return (d*v.vehicles+k)*v.trips + r }

func (v *modelVars) X(i, j, k, r int) milp.Var { return v.x[v.arc(i, j, k, r)] }
func (v *modelVars) F(i, j, k, r int) milp.Var { return v.flow[v.arc(i, j, k, r)] }
func (v *modelVars) T(n, k, r int) milp.Var { return v.t[v.node(n, k, r)] }
func (v *modelVars) T0(k, r int) milp.Var { return v.t0[v.trip(k, r)] }
func (v *modelVars) Qty(d, k, r int) milp.Var { return v.f[v.serve(d, k, r)] }
func (v *modelVars) Late(d, k, r int) milp.Var { return v.a[v.serve(d, k, r)] }
func (v *modelVars) Used(k int) milp.Var { return v.u[k] }
func (v *modelVars) TotalTime(k int) milp.Var { return v.total[k] }

// BuildModel constructs the multi-trip routing MILP for p.
func BuildModel(p *Problem) *BuiltModel {
	m := milp.NewModel("dispatch")
	b := &BuiltModel{Model: m, Problem: p}
	b.declareVars()

	b.setObjective()
	b.addActivation()
	b.addDemand()
	b.addServiceLinks()
	b.addLongItemCap()
	b.addFlow()
	b.addTopology()
	b.addFinalDestination()
	b.addSequencing()
	b.addTripChaining()
	b.addDelays()
	b.addDuration()
	b.addTripCapacity()

	return b
}

func (b *BuiltModel) declareVars() {
	p, m := b.Problem, b.Model
	inf := math.Inf(1)
	v := modelVars{
		nodes:    p.NumNodes(),
		vehicles: len(p.Vehicles),
		trips:    p.MaxTrips,
		demands:  len(p.Demands),
	}
	N, K, R, D := v.nodes, v.vehicles, v.trips, v.demands

	v.x = make([]milp.Var, K*R*N*N)
	v.flow = make([]milp.Var, K*R*N*N)
	for k := 0; k < K; k++ {
		for r := 0; r < R; r++ {
			for i := 0; i < N; i++ {
				for j := 0; j < N; j++ {
					idx := v.arc(i, j, k, r)
					if i == j {
						v.x[idx], v.flow[idx] = -1, -1
						continue
					}
					v.x[idx] = m.AddVar(fmt.Sprintf("X_%d_%d_%d_%d", i, j, k, r+1), milp.Binary, 0, 1)
					v.flow[idx] = m.AddVar(fmt.Sprintf("F_%d_%d_%d_%d", i, j, k, r+1), milp.Continuous, 0, inf)
				}
			}
		}
	}

	v.t = make([]milp.Var, K*R*N)
	v.t0 = make([]milp.Var, K*R)
	for k := 0; k < K; k++ {
		for r := 0; r < R; r++ {
			v.t0[v.trip(k, r)] = m.AddVar(fmt.Sprintf("T0_%d_%d", k, r+1), milp.Continuous, 0, inf)
			for n := 0; n < N; n++ {
				v.t[v.node(n, k, r)] = m.AddVar(fmt.Sprintf("T_%d_%d_%d", n, k, r+1), milp.Continuous, 0, inf)
			}
		}
	}

	v.f = make([]milp.Var, D*K*R)
	v.a = make([]milp.Var, D*K*R)
	for d, e := range p.Demands {
		for k := 0; k < K; k++ {
			for r := 0; r < R; r++ {
				idx := v.serve(d, k, r)
				v.f[idx] = m.AddVar(fmt.Sprintf("f_%d_%d_%d_%d", e.Service, e.Node, k, r+1), milp.Integer, 0, float64(e.Demand.Quantity))
				v.a[idx] = m.AddVar(fmt.Sprintf("A_%d_%d_%d_%d", e.Service, e.Node, k, r+1), milp.Continuous, 0, inf)
			}
		}
	}

	v.u = make([]milp.Var, K)
	v.total = make([]milp.Var, K)
	for k := 0; k < K; k++ {
		v.u[k] = m.AddVar(fmt.Sprintf("U_%d", k), milp.Binary, 0, 1)
		v.total[k] = m.AddVar(fmt.Sprintf("Ttot_%d", k), milp.Continuous, 0, inf)
	}

	b.vars = v
}

// visit returns the number of selected arcs entering n on trip (k, r).
func (b *BuiltModel) visit(n, k, r int) milp.Expr {
	var e milp.Expr
	for i := 0; i < b.vars.nodes; i++ {
		if i != n {
			e.Add(b.vars.X(i, n, k, r), 1)
		}
	}
	return e
}

// leave returns the number of selected arcs leaving n on trip (k, r).
func (b *BuiltModel) leave(n, k, r int) milp.Expr {
	var e milp.Expr
	for j := 0; j < b.vars.nodes; j++ {
		if j != n {
			e.Add(b.vars.X(n, j, k, r), 1)
		}
	}
	return e
}

// tripArcs sums every arc of trip (k, r).
func (b *BuiltModel) tripArcs(k, r int) milp.Expr {
	var e milp.Expr
	N := b.vars.nodes
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if i != j {
				e.Add(b.vars.X(i, j, k, r), 1)
			}
		}
	}
	return e
}

// slotsAt sums slot cost times quantity for demands at node n whose kind
// matches; an empty kind matches every demand and applies the demand sign.
func (b *BuiltModel) slotsAt(n, k, r int, kind domain.Operation) (milp.Expr, bool) {
	var e milp.Expr
	found := false
	for _, d := range b.Problem.DemandsAt(n) {
		entry := b.Problem.Demands[d]
		slots := float64(b.Problem.Services[entry.Service].Slots)
		switch {
		case kind == "":
			e.Add(b.vars.Qty(d, k, r), float64(entry.Demand.Sign())*slots)
		case entry.Demand.Kind == kind:
			e.Add(b.vars.Qty(d, k, r), slots)
		default:
			continue
		}
		found = true
	}
	return e, found
}

func (b *BuiltModel) setObjective() {
	p, v := b.Problem, &b.vars
	var obj milp.Expr

	for k, vp := range p.Vehicles {
		obj.Add(v.TotalTime(k), vp.HourlyCost)
		for r := 0; r < v.trips; r++ {
			for i := 0; i < v.nodes; i++ {
				for j := 0; j < v.nodes; j++ {
					if i != j {
						obj.Add(v.X(i, j, k, r), p.DistanceKm[i][j]*vp.Vehicle.CostPerKm)
					}
				}
			}
		}
	}

	for d, e := range p.Demands {
		rate := p.Services[e.Service].Penalty(e.Demand.Kind)
		for k := 0; k < v.vehicles; k++ {
			for r := 0; r < v.trips; r++ {
				obj.Add(v.Late(d, k, r), rate)
			}
		}
	}

	b.Model.SetObjective(obj)
}

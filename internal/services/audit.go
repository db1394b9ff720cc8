package services

import (
	"dispatch-route-service/internal/milp"
	"fmt"
	"math"
)

const auditTolerance = 1e-4

// Audit rechecks the plan-level guarantees of the model on a solved
// assignment and describes every breach it finds.
func Audit(b *BuiltModel, sol *milp.Solution) []string {
	if !sol.HasValues() {
		return nil
	}
	p, v := b.Problem, &b.vars
	var out []string

	for d, e := range p.Demands {
		var served float64
		for k := 0; k < v.vehicles; k++ {
			for r := 0; r < v.trips; r++ {
				served += sol.Value(v.Qty(d, k, r))
			}
		}
		if math.Abs(served-float64(e.Demand.Quantity)) > auditTolerance {
			out = append(out, fmt.Sprintf("demand %q at %s: served %.4g of %d",
				p.Services[e.Service].Item.Name, p.Nodes[e.Node].Name, served, e.Demand.Quantity))
		}
	}

	for k, vp := range p.Vehicles {
		plate := vp.Vehicle.Plate
		for r := 0; r < v.trips; r++ {
			var slots, long float64
			for d, e := range p.Demands {
				q := sol.Value(v.Qty(d, k, r))
				slots += q * float64(p.Services[e.Service].Slots)
				if p.Services[e.Service].Long {
					long += q
				}
			}
			if slots > float64(vp.Capacity)+auditTolerance {
				out = append(out, fmt.Sprintf("%s trip %d: %.4g slots exceed capacity %d", plate, r+1, slots, vp.Capacity))
			}
			if long > float64(p.LongItemCap)+auditTolerance {
				out = append(out, fmt.Sprintf("%s trip %d: %.4g long items exceed cap %d", plate, r+1, long, p.LongItemCap))
			}

			if vp.Returns() {
				dep := b.leave(0, k, r).Value(sol.Values)
				ret := b.visit(0, k, r).Value(sol.Values)
				if math.Abs(dep-ret) > auditTolerance {
					out = append(out, fmt.Sprintf("%s trip %d: %.0f departures but %.0f returns", plate, r+1, dep, ret))
				}
			}
		}

		if vp.Returns() || vp.FinalNode < 0 {
			continue
		}
		var departures, in, outArcs float64
		for r := 0; r < v.trips; r++ {
			departures += b.leave(0, k, r).Value(sol.Values)
			in += b.visit(vp.FinalNode, k, r).Value(sol.Values)
			outArcs += b.leave(vp.FinalNode, k, r).Value(sol.Values)
		}
		if departures < 0.5 {
			continue
		}
		final := p.Nodes[vp.FinalNode].Name
		if math.Abs(in-1) > auditTolerance {
			out = append(out, fmt.Sprintf("%s: %.0f arrivals at final destination %s, want 1", plate, in, final))
		}
		if outArcs > auditTolerance {
			out = append(out, fmt.Sprintf("%s: leaves final destination %s", plate, final))
		}
	}

	return out
}

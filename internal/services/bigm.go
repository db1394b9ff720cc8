package services

import (
	"errors"
	"fmt"
	"math"
)

// BigM holds the relaxation constants of the model. All of them are derived
// from the problem data and must be recomputed whenever it changes.
type BigM struct {
	// Time relaxes depot-to-node sequencing and trip chaining.
	Time float64
	// Span relaxes node-to-node sequencing; it bounds the time between any
	// two visits of one trip.
	Span     float64
	Flow   float64
	Compat float64
	// Delay relaxes lateness rows of unvisited nodes, whose arrival time is
	// only bounded by the vehicle's working horizon.
	Delay    float64
	Duration float64
}

func ComputeBigM(p *Problem, timeMargin, durationMargin float64) BigM {
	n := p.NumNodes()

	var maxLeg float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				maxLeg = math.Max(maxLeg, p.TravelHours[i][j]+p.ServiceHours[i])
			}
		}
	}
	mTime := maxLeg + timeMargin

	maxCap := 0
	for _, v := range p.Vehicles {
		if v.Capacity > maxCap {
			maxCap = v.Capacity
		}
	}

	var maxQty int
	var maxDeadline float64
	for _, e := range p.Demands {
		if e.Demand.Quantity > maxQty {
			maxQty = e.Demand.Quantity
		}
		maxDeadline = math.Max(maxDeadline, e.DeadlineHours)
	}

	duration := (mTime+p.maxServiceHours())*float64(n)*float64(p.MaxTrips) + durationMargin

	return BigM{
		Time:     mTime,
		Span:     mTime * float64(n),
		Flow:     float64(max(maxCap, p.TotalSlots) + 1),
		Compat:   float64(maxQty),
		Delay:    maxDeadline + duration,
		Duration: duration,
	}
}

// Validate checks that every constant exceeds the quantities it relaxes.
func (b BigM) Validate(p *Problem) error {
	var errs []error
	n := p.NumNodes()

	var maxLeg float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			leg := p.TravelHours[i][j] + p.ServiceHours[i]
			maxLeg = math.Max(maxLeg, leg)
			if b.Time <= leg {
				errs = append(errs, fmt.Errorf("M_time %.4g does not exceed leg %d->%d of %.4g h", b.Time, i, j, leg))
			}
		}
	}
	if tripSpan := maxLeg * float64(n-1); b.Span < tripSpan {
		errs = append(errs, fmt.Errorf("M_span %.4g is below the trip span bound %.4g h", b.Span, tripSpan))
	}

	for _, v := range p.Vehicles {
		if b.Flow <= float64(v.Capacity) {
			errs = append(errs, fmt.Errorf("M_flow %.4g does not exceed capacity %d of %s", b.Flow, v.Capacity, v.Vehicle.Plate))
		}
	}
	if b.Flow <= float64(p.TotalSlots) {
		errs = append(errs, fmt.Errorf("M_flow %.4g does not exceed total demand of %d slots", b.Flow, p.TotalSlots))
	}

	for _, e := range p.Demands {
		if b.Compat < float64(e.Demand.Quantity) {
			errs = append(errs, fmt.Errorf("M_compat %.4g is below demand %d", b.Compat, e.Demand.Quantity))
		}
		if b.Delay < b.Duration-e.DeadlineHours {
			errs = append(errs, fmt.Errorf("M_delay %.4g does not cover M_duration %.4g past deadline %.4g h", b.Delay, b.Duration, e.DeadlineHours))
		}
	}

	trips := float64(p.MaxTrips)
	if arcs := float64(n) * trips; b.Duration < arcs {
		errs = append(errs, fmt.Errorf("M_duration %.4g is below the arc count bound %.4g", b.Duration, arcs))
	}
	if horizon := trips * (float64(n)*(maxLeg) + p.ResupplyHours); b.Duration < horizon {
		errs = append(errs, fmt.Errorf("M_duration %.4g is below the operating horizon %.4g h", b.Duration, horizon))
	}

	if len(errs) > 0 {
		return fmt.Errorf("big-M validation: %w", errors.Join(errs...))
	}
	return nil
}

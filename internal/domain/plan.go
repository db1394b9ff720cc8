package domain

import "time"

// Outcome of an optimization run as reported by the solver.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusTimeLimit  Status = "time_limit"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusNotSolved  Status = "not_solved"
)

type CostBreakdown struct {
	Fixed           float64
	Variable        float64
	DeliveryPenalty float64
	PickupPenalty   float64
	Total           float64
}

// One service performed at a stop.
type ServiceRecord struct {
	Item        string
	Code        string
	Kind        Operation
	Quantity    float64
	Description string
	DelayHours  float64
}

// Represents a visit within a trip. The final stop of a closed trip is the
// depot itself, carrying the return leg and no services.
type Stop struct {
	Node        int
	Location    string
	DistanceKm  float64
	TravelHours float64
	ArriveHours float64
	DepartHours float64
	ArriveAt    time.Time
	DepartAt    time.Time
	Services    []ServiceRecord
}

// Represents one departure from the depot.
type Trip struct {
	Index       int
	Path        string
	Closed      bool
	DepartHours float64
	DepartAt    time.Time
	Stops       []Stop
}

// Return the summed leg distances of the trip.
func (t Trip) DistanceKm() float64 {
	var total float64
	for _, s := range t.Stops {
		total += s.DistanceKm
	}
	return total
}

// Represents all trips assigned to a single vehicle.
type VehiclePlan struct {
	Plate          string
	Label          string
	ReturnsToDepot bool
	TotalHours     float64
	Trips          []Trip
}

type EventKind string

const (
	EventTravel        EventKind = "travel"
	EventService       EventKind = "service"
	EventDepotResupply EventKind = "depot_resupply"
)

// A calendar-legal activity bar. Events are produced once by the scheduler
// and never mutated afterwards.
type ScheduleEvent struct {
	Vehicle  string
	Location string
	Kind     EventKind
	Start    time.Time
	Duration time.Duration
}

func (e ScheduleEvent) End() time.Time { return e.Start.Add(e.Duration) }

// Represents the full answer of one optimization run.
// Callers must check Status before reading Vehicles or Events.
type PlanResult struct {
	RunID          string
	Status         Status
	Solver         string
	Runtime        time.Duration
	Objective      float64
	OperationStart time.Time
	Costs          CostBreakdown
	Vehicles       []VehiclePlan
	Events         []ScheduleEvent
	Violations     []string
}

// HasSchedule reports whether the run produced routes.
func (r *PlanResult) HasSchedule() bool {
	return (r.Status == StatusOptimal || r.Status == StatusTimeLimit) && len(r.Vehicles) > 0
}

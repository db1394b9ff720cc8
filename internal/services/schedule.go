package services

import (
	"dispatch-route-service/internal/calendar"
	"dispatch-route-service/internal/domain"
	"time"
)

// Scheduler maps decoded model hours onto the working calendar.
type Scheduler struct {
	Calendar      calendar.Calendar
	Depot         string
	ResupplyHours float64
}

// Schedule fills the real timestamps of plans in place, anchored at anchor,
// and returns the calendar-legal activity bars of every trip. A travel bar
// covers the leg's driving time only; any slack before arrival is idle.
func (s Scheduler) Schedule(anchor time.Time, plans []domain.VehiclePlan) []domain.ScheduleEvent {
	var events []domain.ScheduleEvent

	for pi := range plans {
		plan := &plans[pi]
		for ti := range plan.Trips {
			trip := &plan.Trips[ti]
			last := ti == len(plan.Trips)-1
			trip.DepartAt = s.Calendar.Advance(anchor, trip.DepartHours)

			from, leftAt := s.Depot, trip.DepartHours
			for si := range trip.Stops {
				stop := &trip.Stops[si]
				stop.ArriveAt = s.Calendar.Advance(anchor, stop.ArriveHours)
				stop.DepartAt = s.Calendar.Advance(anchor, stop.DepartHours)

				events = s.appendBars(events, plan.Label, from+" -> "+stop.Location, domain.EventTravel,
					s.Calendar.Advance(anchor, leftAt), min(stop.TravelHours, stop.ArriveHours-leftAt))

				if stop.Node != 0 {
					events = s.appendBars(events, plan.Label, stop.Location, domain.EventService,
						stop.ArriveAt, stop.DepartHours-stop.ArriveHours)
				} else if !last {
					events = s.appendBars(events, plan.Label, stop.Location, domain.EventDepotResupply,
						stop.ArriveAt, s.ResupplyHours)
				}

				from, leftAt = stop.Location, stop.DepartHours
			}
		}
	}
	return events
}

func (s Scheduler) appendBars(events []domain.ScheduleEvent, vehicle, location string, kind domain.EventKind, start time.Time, hours float64) []domain.ScheduleEvent {
	for _, seg := range s.Calendar.Split(start, hours) {
		events = append(events, domain.ScheduleEvent{
			Vehicle:  vehicle,
			Location: location,
			Kind:     kind,
			Start:    seg.Start,
			Duration: seg.Duration,
		})
	}
	return events
}

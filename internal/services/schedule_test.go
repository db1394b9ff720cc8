package services

import (
	"dispatch-route-service/internal/calendar"
	"dispatch-route-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, min int) time.Time {
	return time.Date(2026, 1, day, hour, min, 0, 0, time.UTC)
}

func TestSchedulerSplitsAcrossLunchAndNight(t *testing.T) {
	plans := []domain.VehiclePlan{{
		Label: "AAA1A11 (Daily)",
		Trips: []domain.Trip{
			{Index: 1, DepartHours: 0, Closed: true, Stops: []domain.Stop{
				{Node: 1, Location: "A", TravelHours: 7, ArriveHours: 7, DepartHours: 8},
				{Node: 0, Location: "CD", TravelHours: 3.5, ArriveHours: 11.5, DepartHours: 11.5},
			}},
			{Index: 2, DepartHours: 12.5, Closed: true, Stops: []domain.Stop{
				{Node: 1, Location: "A", TravelHours: 0.5, ArriveHours: 13, DepartHours: 14},
				{Node: 0, Location: "CD", TravelHours: 0.5, ArriveHours: 14.5, DepartHours: 14.5},
			}},
		},
	}}

	s := Scheduler{Calendar: calendar.Default(), Depot: "CD", ResupplyHours: 1}
	// Wednesday 05:30
	events := s.Schedule(at(7, 5, 30), plans)

	type bar struct {
		loc   string
		kind  domain.EventKind
		start time.Time
		dur   time.Duration
	}
	want := []bar{
		{"CD -> A", domain.EventTravel, at(7, 5, 30), 6*time.Hour + 30*time.Minute},
		{"CD -> A", domain.EventTravel, at(7, 13, 0), 30 * time.Minute},
		{"A", domain.EventService, at(7, 13, 30), time.Hour},
		{"A -> CD", domain.EventTravel, at(7, 14, 30), 3 * time.Hour},
		{"A -> CD", domain.EventTravel, at(8, 5, 30), 30 * time.Minute},
		{"CD", domain.EventDepotResupply, at(8, 6, 0), time.Hour},
		{"CD -> A", domain.EventTravel, at(8, 7, 0), 30 * time.Minute},
		{"A", domain.EventService, at(8, 7, 30), time.Hour},
		{"A -> CD", domain.EventTravel, at(8, 8, 30), 30 * time.Minute},
	}

	require.Len(t, events, len(want))
	for i, w := range want {
		e := events[i]
		assert.Equal(t, "AAA1A11 (Daily)", e.Vehicle, i)
		assert.Equal(t, w.loc, e.Location, i)
		assert.Equal(t, w.kind, e.Kind, i)
		assert.True(t, w.start.Equal(e.Start), "event %d starts %s, want %s", i, e.Start, w.start)
		assert.Equal(t, w.dur, e.Duration, i)
	}

	trips := plans[0].Trips
	assert.True(t, at(7, 5, 30).Equal(trips[0].DepartAt))
	assert.True(t, at(7, 13, 30).Equal(trips[0].Stops[0].ArriveAt))
	assert.True(t, at(7, 14, 30).Equal(trips[0].Stops[0].DepartAt))
	assert.True(t, at(8, 6, 0).Equal(trips[0].Stops[1].ArriveAt))
	assert.True(t, at(8, 7, 0).Equal(trips[1].DepartAt))
}

func TestSchedulerEventsStayInWorkingTime(t *testing.T) {
	cal := calendar.Default()
	plans := []domain.VehiclePlan{{
		Label: "V",
		Trips: []domain.Trip{{Index: 1, Stops: []domain.Stop{
			{Node: 1, Location: "A", TravelHours: 20, ArriveHours: 20, DepartHours: 22},
			{Node: 2, Location: "B", TravelHours: 9.7, ArriveHours: 31.7, DepartHours: 32.7},
		}}},
	}}

	// Friday 05:30: the run crosses a weekend
	events := Scheduler{Calendar: cal, Depot: "CD"}.Schedule(at(9, 5, 30), plans)
	require.NotEmpty(t, events)

	var prevEnd time.Time
	for _, e := range events {
		assert.True(t, cal.IsOpen(e.Start), "start %s", e.Start)
		assert.True(t, cal.IsOpen(e.End()), "end %s", e.End())
		assert.False(t, e.Start.Before(prevEnd), "events overlap at %s", e.Start)
		assert.NotEqual(t, time.Saturday, e.Start.Weekday())
		assert.NotEqual(t, time.Sunday, e.Start.Weekday())
		prevEnd = e.End()
	}
}

func TestSchedulerTravelBarExcludesIdleSlack(t *testing.T) {
	// the model parks the van for two hours before serving A
	plans := []domain.VehiclePlan{{
		Label: "V",
		Trips: []domain.Trip{{Index: 1, Closed: true, Stops: []domain.Stop{
			{Node: 1, Location: "A", TravelHours: 1, ArriveHours: 3, DepartHours: 4},
			{Node: 0, Location: "CD", TravelHours: 1, ArriveHours: 5, DepartHours: 5},
		}}},
	}}

	events := Scheduler{Calendar: calendar.Default(), Depot: "CD", ResupplyHours: 1}.Schedule(at(7, 6, 0), plans)
	require.Len(t, events, 3)

	assert.Equal(t, domain.EventTravel, events[0].Kind)
	assert.True(t, at(7, 6, 0).Equal(events[0].Start))
	assert.Equal(t, time.Hour, events[0].Duration)

	assert.Equal(t, domain.EventService, events[1].Kind)
	assert.True(t, at(7, 9, 0).Equal(events[1].Start))

	assert.Equal(t, "A -> CD", events[2].Location)
	assert.True(t, at(7, 10, 0).Equal(events[2].Start))
	assert.Equal(t, time.Hour, events[2].Duration)
}

// Package calendar maps model hours onto working hours: days open at
// DayStart, close at DayEnd, pause for lunch and optionally skip weekends.
package calendar

import (
	"fmt"
	"math"
	"time"
)

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

// On returns the instant of c on the calendar day of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

type Calendar struct {
	DayStart     Clock
	DayEnd       Clock
	LunchStart   Clock
	LunchEnd     Clock
	SkipWeekends bool
}

// Default is the field operation calendar: 05:30 to 17:30 with lunch from
// 12:00 to 13:00, weekends off.
func Default() Calendar {
	return Calendar{
		DayStart:     Clock{5, 30},
		DayEnd:       Clock{17, 30},
		LunchStart:   Clock{12, 0},
		LunchEnd:     Clock{13, 0},
		SkipWeekends: true,
	}
}

// Parse builds a calendar from "HH:MM" strings.
func Parse(dayStart, dayEnd, lunchStart, lunchEnd string, skipWeekends bool) (Calendar, error) {
	var c Calendar
	var err error
	if c.DayStart, err = ParseClock(dayStart); err != nil {
		return Calendar{}, err
	}
	if c.DayEnd, err = ParseClock(dayEnd); err != nil {
		return Calendar{}, err
	}
	if c.LunchStart, err = ParseClock(lunchStart); err != nil {
		return Calendar{}, err
	}
	if c.LunchEnd, err = ParseClock(lunchEnd); err != nil {
		return Calendar{}, err
	}
	c.SkipWeekends = skipWeekends
	return c, c.Validate()
}

func (c Calendar) Validate() error {
	if !(c.DayStart.minutes() < c.LunchStart.minutes() &&
		c.LunchStart.minutes() < c.LunchEnd.minutes() &&
		c.LunchEnd.minutes() < c.DayEnd.minutes()) {
		return fmt.Errorf("calendar: need day start < lunch start < lunch end < day end, got %s %s %s %s",
			c.DayStart, c.LunchStart, c.LunchEnd, c.DayEnd)
	}
	return nil
}

// OperationStart returns the model-hour zero for a run invoked at now:
// DayStart on the following calendar day.
func (c Calendar) OperationStart(now time.Time) time.Time {
	return c.DayStart.On(now.AddDate(0, 0, 1))
}

// Segment is a continuous stretch of working time.
type Segment struct {
	Start    time.Time
	Duration time.Duration
}

func (s Segment) End() time.Time { return s.Start.Add(s.Duration) }

// Advance returns the instant reached after consuming hours of working time
// from start. A zero duration returns start moved to the next open instant.
func (c Calendar) Advance(start time.Time, hours float64) time.Time {
	return c.walk(c.Normalize(start), toDuration(hours), nil)
}

// Split returns the working-time segments consumed by an activity of the given
// length beginning at start. No segment crosses a closed period.
func (c Calendar) Split(start time.Time, hours float64) []Segment {
	var segs []Segment
	c.walk(start, toDuration(hours), func(s Segment) { segs = append(segs, s) })
	return segs
}

// Normalize moves t forward to the first open instant at or after it.
func (c Calendar) Normalize(t time.Time) time.Time {
	for {
		next := c.step(t)
		if next.Equal(t) {
			return t
		}
		t = next
	}
}

// IsOpen reports whether t lies strictly inside working time, or exactly on
// the boundary of an open block.
func (c Calendar) IsOpen(t time.Time) bool {
	if c.SkipWeekends && isWeekend(t) {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	sec := t.Second() + t.Nanosecond()
	if m < c.DayStart.minutes() || m > c.DayEnd.minutes() || (m == c.DayEnd.minutes() && sec > 0) {
		return false
	}
	if m > c.LunchStart.minutes() && m < c.LunchEnd.minutes() {
		return false
	}
	if m == c.LunchStart.minutes() && sec > 0 {
		return false
	}
	return true
}

func (c Calendar) walk(cur time.Time, remaining time.Duration, emit func(Segment)) time.Time {
	for remaining > 0 {
		next := c.step(cur)
		if !next.Equal(cur) {
			cur = next
			continue
		}

		blockEnd := c.DayEnd.On(cur)
		if cur.Before(c.LunchStart.On(cur)) {
			blockEnd = c.LunchStart.On(cur)
		}

		take := blockEnd.Sub(cur)
		if take > remaining {
			take = remaining
		}
		if emit != nil {
			emit(Segment{Start: cur, Duration: take})
		}
		cur = cur.Add(take)
		remaining -= take
	}
	return cur
}

// step moves cur out of a closed period, or returns it unchanged when it is
// already at an instant where work can start.
func (c Calendar) step(cur time.Time) time.Time {
	if c.SkipWeekends && isWeekend(cur) {
		return c.nextDayStart(cur)
	}
	if !cur.Before(c.DayEnd.On(cur)) {
		return c.nextDayStart(cur)
	}
	if cur.Before(c.DayStart.On(cur)) {
		return c.DayStart.On(cur)
	}
	if !cur.Before(c.LunchStart.On(cur)) && cur.Before(c.LunchEnd.On(cur)) {
		return c.LunchEnd.On(cur)
	}
	return cur
}

func (c Calendar) nextDayStart(t time.Time) time.Time {
	return c.DayStart.On(t.AddDate(0, 0, 1))
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Model hours are rounded to whole seconds.
func toDuration(hours float64) time.Duration {
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0
	}
	return time.Duration(math.Round(hours*3600)) * time.Second
}

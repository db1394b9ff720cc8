package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.January, day, hour, minute, 0, 0, time.UTC)
}

func TestOperationStartIsNextDayAtOpening(t *testing.T) {
	cal := Default()
	// 2026-01-07 is a Wednesday.
	got := cal.OperationStart(at(7, 15, 42))
	assert.Equal(t, at(8, 5, 30), got)
}

func TestAdvance(t *testing.T) {
	cal := Default()

	tests := []struct {
		name  string
		start time.Time
		hours float64
		want  time.Time
	}{
		{"within morning", at(8, 5, 30), 2, at(8, 7, 30)},
		{"ends exactly at lunch", at(8, 5, 30), 6.5, at(8, 12, 0)},
		{"skips lunch", at(8, 5, 30), 7, at(8, 13, 30)},
		{"rolls to next day", at(8, 5, 30), 12, at(9, 6, 30)},
		{"friday rolls to monday", at(9, 16, 30), 2, at(12, 6, 30)},
		{"zero from saturday", at(10, 10, 0), 0, at(12, 5, 30)},
		{"zero inside lunch", at(8, 12, 15), 0, at(8, 13, 0)},
		{"start before opening", at(8, 3, 0), 1, at(8, 6, 30)},
		{"start after closing", at(8, 18, 0), 1, at(9, 6, 30)},
		{"fractional hours", at(8, 5, 30), 0.25, at(8, 5, 45)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.Advance(tt.start, tt.hours))
		})
	}
}

func TestAdvanceWithoutWeekendSkip(t *testing.T) {
	cal := Default()
	cal.SkipWeekends = false

	assert.Equal(t, at(10, 6, 30), cal.Advance(at(9, 16, 30), 2))
}

func TestSplit(t *testing.T) {
	cal := Default()

	segs := cal.Split(at(8, 11, 0), 2)
	require.Len(t, segs, 2)
	assert.Equal(t, Segment{Start: at(8, 11, 0), Duration: time.Hour}, segs[0])
	assert.Equal(t, Segment{Start: at(8, 13, 0), Duration: time.Hour}, segs[1])

	segs = cal.Split(at(8, 12, 30), 1)
	require.Len(t, segs, 1)
	assert.Equal(t, at(8, 13, 0), segs[0].Start)

	segs = cal.Split(at(9, 17, 0), 1)
	require.Len(t, segs, 2)
	assert.Equal(t, 30*time.Minute, segs[0].Duration)
	assert.Equal(t, at(12, 5, 30), segs[1].Start)

	assert.Empty(t, cal.Split(at(8, 9, 0), 0))
}

func TestSplitAndAdvanceAgree(t *testing.T) {
	cal := Default()
	starts := []time.Time{at(8, 4, 0), at(8, 11, 59), at(9, 17, 10), at(11, 9, 0)}

	for _, start := range starts {
		for h := 0.1; h < 60; h += 1.7 {
			segs := cal.Split(start, h)
			require.NotEmpty(t, segs)

			var total time.Duration
			for _, s := range segs {
				total += s.Duration
				assert.True(t, cal.IsOpen(s.Start), "segment start %v", s.Start)
				assert.True(t, cal.IsOpen(s.End()), "segment end %v", s.End())
				assert.Equal(t, s.Start.YearDay(), s.End().YearDay(), "segment crosses midnight")
				lunch := cal.LunchStart.On(s.Start)
				assert.False(t, s.Start.Before(lunch) && s.End().After(lunch), "segment crosses lunch")
			}

			assert.Equal(t, toDuration(h), total)
			assert.Equal(t, cal.Advance(start, h), segs[len(segs)-1].End())
		}
	}
}

func TestAdvanceIsMonotonicAndOpen(t *testing.T) {
	cal := Default()
	anchor := cal.OperationStart(at(7, 20, 0))

	prev := anchor
	for h := 0.0; h <= 200; h += 0.25 {
		got := cal.Advance(anchor, h)
		assert.False(t, got.Before(prev), "h=%v gave %v before %v", h, got, prev)
		assert.True(t, cal.IsOpen(got), "h=%v gave closed instant %v", h, got)
		prev = got
	}
}

func TestIsOpen(t *testing.T) {
	cal := Default()

	assert.True(t, cal.IsOpen(at(8, 5, 30)))
	assert.True(t, cal.IsOpen(at(8, 12, 0)))
	assert.False(t, cal.IsOpen(at(8, 12, 30)))
	assert.True(t, cal.IsOpen(at(8, 13, 0)))
	assert.True(t, cal.IsOpen(at(8, 17, 30)))
	assert.False(t, cal.IsOpen(at(8, 17, 31)))
	assert.False(t, cal.IsOpen(at(8, 5, 0)))
	assert.False(t, cal.IsOpen(at(10, 9, 0)))
}

func TestParse(t *testing.T) {
	cal, err := Parse("06:00", "18:00", "11:30", "12:30", false)
	require.NoError(t, err)
	assert.Equal(t, Clock{6, 0}, cal.DayStart)
	assert.Equal(t, "11:30", cal.LunchStart.String())

	_, err = Parse("06:00", "18:00", "13:30", "12:30", true)
	assert.Error(t, err)

	_, err = Parse("six", "18:00", "11:30", "12:30", true)
	assert.Error(t, err)
}

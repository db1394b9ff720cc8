package render

import (
	"dispatch-route-service/internal/calendar"
	"dispatch-route-service/internal/domain"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var ErrNoEvents = errors.New("no schedule events to draw")

var (
	colorBackground = color.NRGBA{255, 255, 255, 255}
	colorClosed     = color.NRGBA{225, 225, 225, 255}
	colorLunch      = color.NRGBA{250, 240, 200, 255}
	colorGrid       = color.NRGBA{190, 190, 190, 255}
	colorText       = color.NRGBA{30, 30, 30, 255}

	kindColors = map[domain.EventKind]color.NRGBA{
		domain.EventTravel:        {66, 133, 244, 255},
		domain.EventService:       {244, 160, 0, 255},
		domain.EventDepotResupply: {15, 157, 88, 255},
	}
)

const (
	labelWidth  = 150
	headerH     = 28
	rowH        = 30
	barPad      = 6
	maxWidthPx  = 8000
	hatchStride = 6
)

// TimelinePNG draws one row per vehicle over the calendar span of the events.
// Closed hours are shaded; service and resupply bars are hatched.
type TimelinePNG struct {
	Calendar    calendar.Calendar
	PixelsPerHr int
}

func NewTimelinePNG(cal calendar.Calendar) *TimelinePNG {
	return &TimelinePNG{Calendar: cal, PixelsPerHr: 30}
}

type timelineLayout struct {
	from     time.Time
	days     int
	pxPerHr  float64
	vehicles []string
	rows     map[string]int
}

func (l timelineLayout) x(t time.Time) int {
	return labelWidth + int(t.Sub(l.from).Hours()*l.pxPerHr)
}

func (l timelineLayout) width() int { return labelWidth + int(float64(l.days*24)*l.pxPerHr) + 1 }

func (l timelineLayout) height() int { return headerH + len(l.vehicles)*rowH + 1 }

func (r *TimelinePNG) layout(events []domain.ScheduleEvent) timelineLayout {
	first, last := events[0].Start, events[0].End()
	l := timelineLayout{rows: make(map[string]int)}
	for _, e := range events {
		if e.Start.Before(first) {
			first = e.Start
		}
		if e.End().After(last) {
			last = e.End()
		}
		if _, ok := l.rows[e.Vehicle]; !ok {
			l.rows[e.Vehicle] = len(l.vehicles)
			l.vehicles = append(l.vehicles, e.Vehicle)
		}
	}

	y, m, d := first.Date()
	l.from = time.Date(y, m, d, 0, 0, 0, 0, first.Location())
	for l.from.AddDate(0, 0, l.days).Before(last) {
		l.days++
	}
	if l.days == 0 {
		l.days = 1
	}

	l.pxPerHr = float64(r.PixelsPerHr)
	if l.pxPerHr <= 0 {
		l.pxPerHr = 30
	}
	if w := float64(l.days*24) * l.pxPerHr; w > maxWidthPx {
		l.pxPerHr = maxWidthPx / float64(l.days*24)
	}
	return l
}

func (r *TimelinePNG) RenderTimeline(w io.Writer, events []domain.ScheduleEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("render timeline: %w", ErrNoEvents)
	}

	l := r.layout(events)
	img := imaging.New(l.width(), l.height(), colorBackground)
	r.drawCalendar(img, l)

	for _, e := range events {
		row := l.rows[e.Vehicle]
		y0 := headerH + row*rowH + barPad
		rect := image.Rect(l.x(e.Start), y0, max(l.x(e.End()), l.x(e.Start)+1), y0+rowH-2*barPad)

		c := kindColors[e.Kind]
		if e.Kind == domain.EventTravel {
			fill(img, rect, c)
		} else {
			hatch(img, rect, c)
		}
	}

	for i, v := range l.vehicles {
		drawText(img, v, 6, headerH+i*rowH+rowH/2+4)
	}

	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("render timeline: %w", err)
	}
	return nil
}

func (r *TimelinePNG) drawCalendar(img *image.NRGBA, l timelineLayout) {
	bottom := l.height()
	for d := 0; d < l.days; d++ {
		day := l.from.AddDate(0, 0, d)
		next := day.AddDate(0, 0, 1)

		if r.Calendar.SkipWeekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
			fill(img, image.Rect(l.x(day), headerH, l.x(next), bottom), colorClosed)
		} else {
			fill(img, image.Rect(l.x(day), headerH, l.x(r.Calendar.DayStart.On(day)), bottom), colorClosed)
			fill(img, image.Rect(l.x(r.Calendar.DayEnd.On(day)), headerH, l.x(next), bottom), colorClosed)
			fill(img, image.Rect(l.x(r.Calendar.LunchStart.On(day)), headerH, l.x(r.Calendar.LunchEnd.On(day)), bottom), colorLunch)
		}

		fill(img, image.Rect(l.x(day), 0, l.x(day)+1, bottom), colorGrid)
		drawText(img, day.Format("Mon 02/01"), l.x(day)+4, headerH-9)
	}

	for i := 0; i <= len(l.vehicles); i++ {
		y := headerH + i*rowH
		fill(img, image.Rect(0, y, l.width(), y+1), colorGrid)
	}
}

func fill(img *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	draw.Draw(img, rect.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// hatch outlines rect and fills it with diagonal stripes.
func hatch(img *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			edge := x == rect.Min.X || x == rect.Max.X-1 || y == rect.Min.Y || y == rect.Max.Y-1
			if edge || (x+y)%hatchStride < 2 {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func drawText(img *image.NRGBA, s string, x, y int) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

package ports

import (
	"dispatch-route-service/internal/domain"
	"io"
)

// Draws schedule events as a timeline image.
type TimelineRenderer interface {
	RenderTimeline(w io.Writer, events []domain.ScheduleEvent) error
}

// Writes the warehouse picking list for the planned deliveries.
type PickingListWriter interface {
	WritePickingList(w io.Writer, plans []domain.VehiclePlan) error
}

package domain

import (
	"fmt"
	"strings"
)

type Operation string

const (
	Delivery Operation = "delivery"
	Pickup   Operation = "pickup"
)

// Parse an operation name. Portuguese spreadsheet labels are accepted too.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "delivery", "entrega":
		return Delivery, nil
	case "pickup", "coleta":
		return Pickup, nil
	}
	return "", fmt.Errorf("parse operation %q: %w", s, ErrInvalidInput)
}

// Priority of a task. Lower is more urgent.
type Priority int

const (
	PriorityImmediate Priority = 0
	PriorityNormal    Priority = 1
	PrioritySpaced    Priority = 2
)

// Maps priorities to deadlines in model hours.
type DeadlineTable struct {
	Immediate float64
	Normal    float64
	Spaced    float64
	Default   float64
}

func (t DeadlineTable) For(p Priority) float64 {
	switch p {
	case PriorityImmediate:
		return t.Immediate
	case PriorityNormal:
		return t.Normal
	case PrioritySpaced:
		return t.Spaced
	}
	return t.Default
}

// A single delivery or pickup request at a location.
type Task struct {
	Location     string `validate:"required"`
	Coordinates  Coordinates
	Operation    Operation `validate:"oneof=delivery pickup"`
	Item         string    `validate:"required"`
	Quantity     int       `validate:"gt=0"`
	UnitWeightKg float64   `validate:"gte=0"`
	Priority     Priority  `validate:"gte=0,lte=2"`
	Code         string
}

// Return the quantity signed by operation: deliveries positive, pickups negative.
func (t Task) SignedQuantity() int {
	if t.Operation == Pickup {
		return -t.Quantity
	}
	return t.Quantity
}

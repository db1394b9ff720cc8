package domain

// Demand is the net need of one service at one location.
// Kind carries the direction so the magnitude is always non-negative.
type Demand struct {
	Kind     Operation
	Quantity int
}

// Build a Demand from a signed quantity (negative means pickup).
func DemandFromSigned(q int) Demand {
	if q < 0 {
		return Demand{Kind: Pickup, Quantity: -q}
	}
	return Demand{Kind: Delivery, Quantity: q}
}

func (d Demand) IsZero() bool { return d.Quantity == 0 }

func (d Demand) IsPickup() bool { return d.Kind == Pickup && d.Quantity > 0 }

// Return +1 for deliveries and -1 for pickups.
func (d Demand) Sign() int {
	if d.Kind == Pickup {
		return -1
	}
	return 1
}

func (d Demand) Signed() int { return d.Sign() * d.Quantity }

// Aggregated demand for a (service, node) pair of a normalized problem.
type DemandEntry struct {
	Service       int
	Node          int
	Demand        Demand
	DeadlineHours float64
	Code          string
}

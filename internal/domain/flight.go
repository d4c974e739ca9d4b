package domain

import "time"

// MinCapacity is the smallest seat capacity a flight can have.
const MinCapacity = 100

type Flight struct {
	ID          int64
	Name        string
	Origin      string
	Destination string
	Capacity    int
	BookedCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Available is always derived from the counter, never stored.
func (f Flight) Available() int {
	return f.Capacity - f.BookedCount
}

func (f Flight) IsFull() bool {
	return f.BookedCount >= f.Capacity
}

// EffectiveCapacity clamps a requested capacity up to MinCapacity.
func EffectiveCapacity(capacity int) int {
	if capacity < MinCapacity {
		return MinCapacity
	}
	return capacity
}

// FlightIdentity is the row shape produced by combined (union) queries.
type FlightIdentity struct {
	ID          int64
	Name        string
	Origin      string
	Destination string
}

// FlightFilter selects flights for combined queries. Unset fields match everything.
type FlightFilter struct {
	CapacityAbove  *int
	AvailableBelow *int
	Origin         string
	Destination    string
}

func (ff FlightFilter) Matches(f Flight) bool {
	if ff.CapacityAbove != nil && f.Capacity <= *ff.CapacityAbove {
		return false
	}
	if ff.AvailableBelow != nil && f.Available() >= *ff.AvailableBelow {
		return false
	}
	if ff.Origin != "" && f.Origin != ff.Origin {
		return false
	}
	if ff.Destination != "" && f.Destination != ff.Destination {
		return false
	}
	return true
}

// CounterDrift reports a flight whose booked count disagrees with its passengers.
type CounterDrift struct {
	FlightID    int64
	BookedCount int
	Passengers  int
}

package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventFlightCreated      EventType = "flight_created"
	EventFlightDeleted      EventType = "flight_deleted"
	EventCapacityUpdated    EventType = "capacity_updated"
	EventPassengerReserved  EventType = "passenger_reserved"
	EventPassengerCancelled EventType = "passenger_cancelled"
)

// Event is the JSON payload written to the events and notifications topics.
// Counters are carried by flight events only; passenger events leave them out.
type Event struct {
	EventID     string    `json:"event_id"`
	Type        EventType `json:"type"`
	FlightID    int64     `json:"flight_id"`
	PassengerID int64     `json:"passenger_id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	BookedCount int       `json:"booked_count,omitempty"`
	Capacity    int       `json:"capacity,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Key partitions events by flight so consumers see one flight's history in order.
func (e Event) Key() string {
	return fmt.Sprintf("%d", e.FlightID)
}

func FlightEvent(t EventType, f domain.Flight) Event {
	return Event{
		EventID:     uuid.NewString(),
		Type:        t,
		FlightID:    f.ID,
		BookedCount: f.BookedCount,
		Capacity:    f.Capacity,
		OccurredAt:  time.Now().UTC(),
	}
}

func PassengerEvent(t EventType, p domain.Passenger) Event {
	return Event{
		EventID:     uuid.NewString(),
		Type:        t,
		FlightID:    p.FlightID,
		PassengerID: p.ID,
		Name:        p.Name,
		Email:       p.Email,
		OccurredAt:  time.Now().UTC(),
	}
}

func DecodeEvent(msg kafka.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event at offset %d: %w", msg.Offset, err)
	}
	return e, nil
}

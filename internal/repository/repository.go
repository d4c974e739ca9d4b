package repository

import (
	"context"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	UpdateCapacity(ctx context.Context, id int64, capacity int) (*domain.Flight, error)
	// Delete removes the flight together with its passengers and returns
	// how many passengers were removed.
	Delete(ctx context.Context, id int64) (int, error)
	CombinedIdentitySet(ctx context.Context, a, b domain.FlightFilter) ([]domain.FlightIdentity, error)
	AuditCounters(ctx context.Context) ([]domain.CounterDrift, error)
}

type PassengerRepository interface {
	// Reserve inserts the passenger and increments the flight counter as one unit.
	Reserve(ctx context.Context, passenger *domain.Passenger) error
	// Cancel deletes the passenger and decrements the flight counter as one unit.
	Cancel(ctx context.Context, id int64) (*domain.Passenger, error)
	List(ctx context.Context) ([]domain.Passenger, error)
	ListWithFlights(ctx context.Context) ([]domain.PassengerWithFlight, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.PassengerContact, error)
	ExistsWith(ctx context.Context, field domain.IdentityField, value string) (bool, error)
}

package flights

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
)

type FlightUseCase interface {
	CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	UpdateCapacity(ctx context.Context, id int64, capacity int) (*domain.Flight, error)
	DeleteFlight(ctx context.Context, id int64) (int, error)
	ListPassengers(ctx context.Context, flightID int64) ([]domain.PassengerContact, error)
	CombinedIdentitySet(ctx context.Context, a, b domain.FlightFilter) ([]domain.FlightIdentity, error)
	AuditCounters(ctx context.Context) ([]domain.CounterDrift, error)
}

// FlightCache holds the flight listing. SetFlights must drop the listing
// when generation is older than the cache's current one.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	FlightsGeneration(ctx context.Context) (int64, error)
	SetFlights(ctx context.Context, flights []domain.Flight, generation int64) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type CreateFlightInput struct {
	Name        string `json:"name"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Capacity    int    `json:"capacity"`
}

type FlightService struct {
	repo        repository.FlightRepository
	passengers  repository.PassengerRepository
	cache       FlightCache
	producer    Producer
	eventsTopic string
}

type FlightServiceOption func(*FlightService)

func WithCache(cache FlightCache) FlightServiceOption {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithProducer(producer Producer, eventsTopic string) FlightServiceOption {
	return func(s *FlightService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func NewFlightService(repo repository.FlightRepository, passengers repository.PassengerRepository, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{repo: repo, passengers: passengers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFlight clamps the requested capacity up to domain.MinCapacity.
func (s *FlightService) CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	flight := &domain.Flight{
		Name:        strings.TrimSpace(input.Name),
		Origin:      strings.TrimSpace(input.Origin),
		Destination: strings.TrimSpace(input.Destination),
		Capacity:    domain.EffectiveCapacity(input.Capacity),
	}
	switch {
	case flight.Name == "":
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case flight.Origin == "":
		return nil, fmt.Errorf("%w: origin is required", domain.ErrInvalidInput)
	case flight.Destination == "":
		return nil, fmt.Errorf("%w: destination is required", domain.ErrInvalidInput)
	}

	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.publish(ctx, kafka.FlightEvent(kafka.EventFlightCreated, *flight))
	return flight, nil
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
		return cached, nil
	}

	// Generation first: a write invalidated after this point makes
	// SetFlights refuse the snapshot.
	generation, genErr := s.cache.FlightsGeneration(ctx)
	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := s.cache.SetFlights(ctx, flights, generation); err != nil {
			log.Printf("WARNING: failed to cache flights: %v", err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) UpdateCapacity(ctx context.Context, id int64, capacity int) (*domain.Flight, error) {
	flight, err := s.repo.UpdateCapacity(ctx, id, domain.EffectiveCapacity(capacity))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.publish(ctx, kafka.FlightEvent(kafka.EventCapacityUpdated, *flight))
	return flight, nil
}

// DeleteFlight removes the flight and its passengers and reports how many
// passengers went with it.
func (s *FlightService) DeleteFlight(ctx context.Context, id int64) (int, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	s.publish(ctx, kafka.FlightEvent(kafka.EventFlightDeleted, domain.Flight{ID: id, BookedCount: removed}))
	return removed, nil
}

func (s *FlightService) ListPassengers(ctx context.Context, flightID int64) ([]domain.PassengerContact, error) {
	return s.passengers.ListByFlight(ctx, flightID)
}

func (s *FlightService) CombinedIdentitySet(ctx context.Context, a, b domain.FlightFilter) ([]domain.FlightIdentity, error) {
	return s.repo.CombinedIdentitySet(ctx, a, b)
}

func (s *FlightService) AuditCounters(ctx context.Context) ([]domain.CounterDrift, error) {
	return s.repo.AuditCounters(ctx)
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(context.WithoutCancel(ctx)); err != nil {
		log.Printf("WARNING: failed to invalidate flights cache: %v", err)
	}
}

func (s *FlightService) publish(ctx context.Context, event kafka.Event) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.Key(), event); err != nil {
		log.Printf("WARNING: failed to publish %s event for flight %d: %v", event.Type, event.FlightID, err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)

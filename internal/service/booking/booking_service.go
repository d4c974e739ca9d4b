package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
)

type BookingUseCase interface {
	ReservePassenger(ctx context.Context, input ReservePassengerInput) (*domain.Passenger, error)
	CancelPassenger(ctx context.Context, id int64) (*domain.Passenger, error)
	ListPassengers(ctx context.Context) ([]domain.Passenger, error)
	ListPassengersWithFlights(ctx context.Context) ([]domain.PassengerWithFlight, error)
	ExistsPassengerWith(ctx context.Context, field domain.IdentityField, value string) (bool, error)
}

// Cache is the part of the flight cache that reservations touch: every
// committed reservation or cancellation changes a flight's counters.
type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type BookingService struct {
	passengers         repository.PassengerRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	maxAttempts        int
	backoff            time.Duration
}

type ReservePassengerInput struct {
	Name     string `json:"name"`
	Passport string `json:"passport"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
	FlightID int64  `json:"flight_id"`
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithProducer(producer Producer, eventsTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithRetry sets how many times a write is attempted when storage reports
// domain.ErrUnavailable. Attempt n waits n*backoff before the next one.
func WithRetry(maxAttempts int, backoff time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		s.backoff = backoff
	}
}

func NewBookingService(passengers repository.PassengerRepository, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		passengers:  passengers,
		maxAttempts: 1,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) ReservePassenger(ctx context.Context, input ReservePassengerInput) (*domain.Passenger, error) {
	// Identity values are stored exactly as given.
	candidate := domain.Passenger{
		Name:     input.Name,
		Passport: input.Passport,
		Contact:  input.Contact,
		Email:    input.Email,
		FlightID: input.FlightID,
	}
	if err := validatePassenger(candidate); err != nil {
		return nil, err
	}

	var reserved domain.Passenger
	err := s.withRetry(ctx, "reserve passenger", func() error {
		reserved = candidate
		return s.passengers.Reserve(ctx, &reserved)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, kafka.PassengerEvent(kafka.EventPassengerReserved, reserved))
	return &reserved, nil
}

func (s *BookingService) CancelPassenger(ctx context.Context, id int64) (*domain.Passenger, error) {
	if id <= 0 {
		return nil, domain.ErrPassengerNotFound
	}

	var cancelled *domain.Passenger
	err := s.withRetry(ctx, "cancel passenger", func() error {
		var err error
		cancelled, err = s.passengers.Cancel(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, kafka.PassengerEvent(kafka.EventPassengerCancelled, *cancelled))
	return cancelled, nil
}

func (s *BookingService) ListPassengers(ctx context.Context) ([]domain.Passenger, error) {
	return s.passengers.List(ctx)
}

func (s *BookingService) ListPassengersWithFlights(ctx context.Context) ([]domain.PassengerWithFlight, error) {
	return s.passengers.ListWithFlights(ctx)
}

// ExistsPassengerWith is advisory. Reservation repeats the check inside its
// own unit of work.
func (s *BookingService) ExistsPassengerWith(ctx context.Context, field domain.IdentityField, value string) (bool, error) {
	if _, err := domain.ParseIdentityField(string(field)); err != nil {
		return false, err
	}
	if strings.TrimSpace(value) == "" {
		return false, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	return s.passengers.ExistsWith(ctx, field, value)
}

// validatePassenger rejects blank fields. A non-positive flight id can never
// name a flight, so it is reported as no-such-flight.
func validatePassenger(p domain.Passenger) error {
	blank := func(v string) bool { return strings.TrimSpace(v) == "" }
	switch {
	case blank(p.Name):
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case blank(p.Passport):
		return fmt.Errorf("%w: passport is required", domain.ErrInvalidInput)
	case blank(p.Contact):
		return fmt.Errorf("%w: contact is required", domain.ErrInvalidInput)
	case blank(p.Email):
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	case p.FlightID <= 0:
		return domain.ErrNoSuchFlight
	}
	return nil
}

func (s *BookingService) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrUnavailable) || attempt == s.maxAttempts {
			return err
		}
		log.Printf("%s: attempt %d/%d failed: %v", op, attempt, s.maxAttempts, err)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
	return err
}

func (s *BookingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(context.WithoutCancel(ctx)); err != nil {
		log.Printf("WARNING: failed to invalidate flights cache: %v", err)
	}
}

func (s *BookingService) publish(ctx context.Context, event kafka.Event) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.Key(), event); err != nil {
		log.Printf("WARNING: failed to publish %s event for passenger %d: %v", event.Type, event.PassengerID, err)
	}
	if s.notificationsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, event.Key(), event); err != nil {
		log.Printf("WARNING: failed to publish %s notification for passenger %d: %v", event.Type, event.PassengerID, err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)

package flights

import (
	"context"
	"sync"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// generationCache keeps the same contract as the Redis cache in memory.
type generationCache struct {
	mu         sync.Mutex
	generation int64
	flights    []domain.Flight
	invalidErr []error
}

func (c *generationCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flights, nil
}

func (c *generationCache) FlightsGeneration(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *generationCache) SetFlights(ctx context.Context, flights []domain.Flight, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation == c.generation {
		c.flights = flights
	}
	return nil
}

func (c *generationCache) InvalidateFlights(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidErr = append(c.invalidErr, ctx.Err())
	c.generation++
	c.flights = nil
	return nil
}

// writeAfterList commits a write right after the listing was read and
// before the service gets to cache it.
type writeAfterList struct {
	repository.FlightRepository
	after func()
}

func (r *writeAfterList) List(ctx context.Context) ([]domain.Flight, error) {
	flights, err := r.FlightRepository.List(ctx)
	if r.after != nil {
		after := r.after
		r.after = nil
		after()
	}
	return flights, err
}

// Тест: снимок, прочитанный до брони, не должен остаться в кэше
func TestFlightService_List_DoesNotCacheSnapshotOlderThanReservation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	cache := &generationCache{}

	flightRepo := &writeAfterList{FlightRepository: store.Flights()}
	flightSvc := NewFlightService(flightRepo, store.Passengers(), WithCache(cache))
	bookingSvc := booking.NewBookingService(store.Passengers(), booking.WithCache(cache))

	flight, err := flightSvc.CreateFlight(ctx, CreateFlightInput{Name: "AI101", Origin: "DEL", Destination: "BOM", Capacity: 100})
	require.NoError(t, err)

	flightRepo.after = func() {
		_, err := bookingSvc.ReservePassenger(ctx, booking.ReservePassengerInput{
			Name: "Asha", Passport: "P1", Contact: "C1", Email: "asha@example.com", FlightID: flight.ID,
		})
		require.NoError(t, err)
	}

	first, err := flightSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 0, first[0].BookedCount)

	second, err := flightSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, second[0].BookedCount)

	// теперь кэш заполнен актуальным списком
	cached, err := cache.GetFlights(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, 1, cached[0].BookedCount)
}

func TestFlightService_InvalidateSurvivesCanceledRequest(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	cache := &generationCache{}
	service := NewFlightService(mockRepo, &MockPassengerRepository{}, WithCache(cache))

	ctx, cancel := context.WithCancel(context.Background())
	mockRepo.On("UpdateCapacity", mock.Anything, int64(4), 150).Run(func(mock.Arguments) {
		// клиент отключился после коммита
		cancel()
	}).Return(&domain.Flight{ID: 4, Capacity: 150}, nil).Once()

	_, err := service.UpdateCapacity(ctx, 4, 150)
	require.NoError(t, err)

	require.Len(t, cache.invalidErr, 1)
	assert.NoError(t, cache.invalidErr[0])
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, int64(1), cache.generation)
}

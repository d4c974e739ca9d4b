package bootstrap

import (
	"context"
	"testing"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStorage_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}

	storage, err := OpenStorage(context.Background(), cfg)
	require.NoError(t, err)
	defer storage.Close()

	assert.Nil(t, storage.Check)

	flight := &domain.Flight{Name: "AI101", Origin: "DEL", Destination: "BOM", Capacity: 100}
	require.NoError(t, storage.Flights.Create(context.Background(), flight))
	require.NoError(t, storage.Passengers.Reserve(context.Background(), &domain.Passenger{
		Name: "Asha", Passport: "P1", Contact: "C1", Email: "asha@example.com", FlightID: flight.ID,
	}))

	// обе стороны должны видеть одно и то же хранилище
	got, err := storage.Flights.GetByID(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BookedCount)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}

	_, err := OpenStorage(context.Background(), cfg)
	assert.EqualError(t, err, `unknown storage driver "sqlite"`)
}

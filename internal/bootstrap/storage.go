package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/database"
	"github.com/Domenick1991/flightbooking/internal/repository"
)

type Storage struct {
	Flights    repository.FlightRepository
	Passengers repository.PassengerRepository
	Check      HealthCheck
	close      func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage builds the repositories for the configured driver. The
// postgres driver connects, applies the schema and shares one pool between
// both repositories.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Printf("storage: in-memory, data is lost on restart")
		store := repository.NewMemoryStore()
		return &Storage{Flights: store.Flights(), Passengers: store.Passengers()}, nil

	case config.StorageDriverPostgres:
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Storage{
			Flights:    repository.NewFlightRepository(pool, cfg.Database.LockTimeoutMS),
			Passengers: repository.NewPassengerRepository(pool, cfg.Database.LockTimeoutMS),
			Check:      pool.Ping,
			close:      pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

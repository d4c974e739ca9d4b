package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestFlightsKey(t *testing.T) {
	assert.Equal(t, "cache:flights", flightsKey())
	assert.Equal(t, "cache:flights:generation", generationKey())
}

func TestRedisCache_Unreachable(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	flights, err := c.GetFlights(ctx)
	assert.Error(t, err)
	assert.Nil(t, flights)

	_, err = c.FlightsGeneration(ctx)
	assert.Error(t, err)
	assert.Error(t, c.SetFlights(ctx, []domain.Flight{{ID: 1}}, 0))
	assert.Error(t, c.InvalidateFlights(ctx))
	assert.Error(t, c.Ping(ctx))
}

// RedisSuite runs against a real server. Set FLIGHTBOOKING_TEST_REDIS_ADDR
// to enable it; the keys it touches are deleted before every test.
type RedisSuite struct {
	suite.Suite
	cache *RedisCache
	ctx   context.Context
}

func TestRedisSuite(t *testing.T) {
	addr := os.Getenv("FLIGHTBOOKING_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FLIGHTBOOKING_TEST_REDIS_ADDR is not set")
	}
	suite.Run(t, &RedisSuite{cache: NewRedisCache(config.RedisConfig{Addr: addr}, time.Minute)})
}

func (s *RedisSuite) SetupTest() {
	s.ctx = context.Background()
	require.NoError(s.T(), s.cache.Ping(s.ctx))
	require.NoError(s.T(), s.cache.client.Del(s.ctx, flightsKey(), generationKey()).Err())
}

func (s *RedisSuite) TearDownSuite() {
	s.cache.Close()
}

func (s *RedisSuite) TestMissReturnsNil() {
	flights, err := s.cache.GetFlights(s.ctx)
	s.NoError(err)
	s.Nil(flights)

	generation, err := s.cache.FlightsGeneration(s.ctx)
	s.NoError(err)
	s.Equal(int64(0), generation)
}

func (s *RedisSuite) TestSetGetInvalidate() {
	flights := []domain.Flight{{ID: 4, Name: "AI101", Origin: "DEL", Destination: "BOM", Capacity: 150, BookedCount: 2}}

	generation, err := s.cache.FlightsGeneration(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.cache.SetFlights(s.ctx, flights, generation))

	cached, err := s.cache.GetFlights(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cached, 1)
	s.Equal(flights[0].Name, cached[0].Name)
	s.Equal(2, cached[0].BookedCount)

	s.Require().NoError(s.cache.InvalidateFlights(s.ctx))

	cached, err = s.cache.GetFlights(s.ctx)
	s.NoError(err)
	s.Nil(cached)

	next, err := s.cache.FlightsGeneration(s.ctx)
	s.NoError(err)
	s.Equal(generation+1, next)
}

// Список, прочитанный до инвалидации, не должен попасть в кэш
func (s *RedisSuite) TestSetWithOldGenerationIsDropped() {
	generation, err := s.cache.FlightsGeneration(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.cache.InvalidateFlights(s.ctx))
	s.Require().NoError(s.cache.SetFlights(s.ctx, []domain.Flight{{ID: 4, BookedCount: 0}}, generation))

	cached, err := s.cache.GetFlights(s.ctx)
	s.NoError(err)
	s.Nil(cached)

	current, err := s.cache.FlightsGeneration(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.cache.SetFlights(s.ctx, []domain.Flight{{ID: 4, BookedCount: 1}}, current))

	cached, err = s.cache.GetFlights(s.ctx)
	s.NoError(err)
	s.Require().Len(cached, 1)
	s.Equal(1, cached[0].BookedCount)
}

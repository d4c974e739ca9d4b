package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// MemoryStore keeps flights and passengers in process memory. A single
// RWMutex guards every map, so each write is applied as one unit and reads
// never see a half-applied reservation or cancellation.
type MemoryStore struct {
	mu sync.RWMutex

	flights    map[int64]*domain.Flight
	passengers map[int64]*domain.Passenger
	// field -> identity value -> passenger id
	byIdentity map[domain.IdentityField]map[string]int64

	nextFlightID    int64
	nextPassengerID int64

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights:    make(map[int64]*domain.Flight),
		passengers: make(map[int64]*domain.Passenger),
		byIdentity: map[domain.IdentityField]map[string]int64{
			domain.FieldPassport: {},
			domain.FieldContact:  {},
			domain.FieldEmail:    {},
		},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Flights exposes the store through the flight repository contract.
func (s *MemoryStore) Flights() FlightRepository { return memoryFlights{s} }

// Passengers exposes the store through the passenger repository contract.
func (s *MemoryStore) Passengers() PassengerRepository { return memoryPassengers{s} }

type memoryFlights struct{ s *MemoryStore }

type memoryPassengers struct{ s *MemoryStore }

func (m memoryFlights) Create(ctx context.Context, flight *domain.Flight) error {
	if err := ctx.Err(); err != nil {
		return classify("create flight", err)
	}
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextFlightID++
	now := s.now()
	flight.ID = s.nextFlightID
	flight.BookedCount = 0
	flight.CreatedAt = now
	flight.UpdatedAt = now
	stored := *flight
	s.flights[stored.ID] = &stored
	return nil
}

func (m memoryFlights) List(ctx context.Context) ([]domain.Flight, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("list flights", err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	flights := make([]domain.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		flights = append(flights, *f)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].ID < flights[j].ID })
	return flights, nil
}

func (m memoryFlights) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("get flight", err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[id]
	if !ok {
		return nil, domain.ErrNoSuchFlight
	}
	out := *f
	return &out, nil
}

func (m memoryFlights) UpdateCapacity(ctx context.Context, id int64, capacity int) (*domain.Flight, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("update capacity", err)
	}
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[id]
	if !ok {
		return nil, domain.ErrNoSuchFlight
	}
	if capacity < f.BookedCount {
		return nil, domain.ErrCapacityBelowBooked
	}
	f.Capacity = capacity
	f.UpdatedAt = s.now()
	out := *f
	return &out, nil
}

func (m memoryFlights) Delete(ctx context.Context, id int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, classify("delete flight", err)
	}
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flights[id]; !ok {
		return 0, domain.ErrNoSuchFlight
	}
	removed := 0
	for pid, p := range s.passengers {
		if p.FlightID == id {
			s.dropPassenger(pid)
			removed++
		}
	}
	delete(s.flights, id)
	return removed, nil
}

func (m memoryFlights) CombinedIdentitySet(ctx context.Context, a, b domain.FlightFilter) ([]domain.FlightIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("combined flight query", err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[domain.FlightIdentity]struct{})
	result := make([]domain.FlightIdentity, 0)
	for _, f := range s.flights {
		if !a.Matches(*f) && !b.Matches(*f) {
			continue
		}
		fi := domain.FlightIdentity{ID: f.ID, Name: f.Name, Origin: f.Origin, Destination: f.Destination}
		if _, dup := seen[fi]; dup {
			continue
		}
		seen[fi] = struct{}{}
		result = append(result, fi)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m memoryFlights) AuditCounters(ctx context.Context) ([]domain.CounterDrift, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("audit counters", err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int, len(s.flights))
	for _, p := range s.passengers {
		counts[p.FlightID]++
	}
	drifts := make([]domain.CounterDrift, 0)
	for id, f := range s.flights {
		if f.BookedCount != counts[id] {
			drifts = append(drifts, domain.CounterDrift{FlightID: id, BookedCount: f.BookedCount, Passengers: counts[id]})
		}
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].FlightID < drifts[j].FlightID })
	return drifts, nil
}

// Reserve checks the preconditions in the order flight, capacity, passport,
// contact, email and applies the insert and the counter increment together.
func (m memoryPassengers) Reserve(ctx context.Context, p *domain.Passenger) error {
	if err := ctx.Err(); err != nil {
		return classify("reserve passenger", err)
	}
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[p.FlightID]
	if !ok {
		return domain.ErrNoSuchFlight
	}
	if f.IsFull() {
		return domain.ErrFlightFull
	}
	for _, field := range domain.IdentityFields {
		if _, taken := s.byIdentity[field][p.Value(field)]; taken {
			return domain.DuplicateError(field)
		}
	}

	s.nextPassengerID++
	p.ID = s.nextPassengerID
	p.CreatedAt = s.now()
	stored := *p
	s.passengers[stored.ID] = &stored
	for _, field := range domain.IdentityFields {
		s.byIdentity[field][stored.Value(field)] = stored.ID
	}

	f.BookedCount++
	f.UpdatedAt = p.CreatedAt
	return nil
}

func (m memoryPassengers) Cancel(ctx context.Context, id int64) (*domain.Passenger, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("cancel passenger", err)
	}
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.passengers[id]
	if !ok {
		return nil, domain.ErrPassengerNotFound
	}
	s.dropPassenger(id)
	if f, ok := s.flights[p.FlightID]; ok {
		f.BookedCount--
		f.UpdatedAt = s.now()
	}
	out := *p
	return &out, nil
}

func (m memoryPassengers) List(ctx context.Context) ([]domain.Passenger, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("list passengers", err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPassengers(), nil
}

func (m memoryPassengers) ListWithFlights(ctx context.Context) ([]domain.PassengerWithFlight, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("list passengers with flights", err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PassengerWithFlight, 0, len(s.passengers))
	for _, p := range s.sortedPassengers() {
		f, ok := s.flights[p.FlightID]
		if !ok {
			continue
		}
		result = append(result, domain.PassengerWithFlight{Passenger: p, Flight: *f})
	}
	return result, nil
}

func (m memoryPassengers) ListByFlight(ctx context.Context, flightID int64) ([]domain.PassengerContact, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("list flight passengers", err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var onFlight []domain.Passenger
	for _, p := range s.sortedPassengers() {
		if p.FlightID == flightID {
			onFlight = append(onFlight, p)
		}
	}
	sort.SliceStable(onFlight, func(i, j int) bool { return onFlight[i].Name < onFlight[j].Name })

	result := make([]domain.PassengerContact, 0, len(onFlight))
	for _, p := range onFlight {
		result = append(result, domain.PassengerContact{Name: p.Name, Passport: p.Passport, Contact: p.Contact, Email: p.Email})
	}
	return result, nil
}

func (m memoryPassengers) ExistsWith(ctx context.Context, field domain.IdentityField, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, classify("check passenger "+string(field), err)
	}
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, ok := s.byIdentity[field]
	if !ok {
		_, err := domain.ParseIdentityField(string(field))
		return false, err
	}
	_, taken := index[value]
	return taken, nil
}

// dropPassenger removes the passenger and its identity entries. Caller holds mu.
func (s *MemoryStore) dropPassenger(id int64) {
	p, ok := s.passengers[id]
	if !ok {
		return
	}
	for _, field := range domain.IdentityFields {
		delete(s.byIdentity[field], p.Value(field))
	}
	delete(s.passengers, id)
}

// sortedPassengers copies all passengers ordered by id. Caller holds mu.
func (s *MemoryStore) sortedPassengers() []domain.Passenger {
	out := make([]domain.Passenger, 0, len(s.passengers))
	for _, p := range s.passengers {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var (
	_ FlightRepository    = memoryFlights{}
	_ PassengerRepository = memoryPassengers{}
)

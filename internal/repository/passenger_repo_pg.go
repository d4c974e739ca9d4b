package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const passengerColumns = `id, name, passport, contact, email, flight_id, created_at`

type PGPassengerRepository struct {
	db          *pgxpool.Pool
	lockTimeout int
}

func NewPassengerRepository(db *pgxpool.Pool, lockTimeoutMS int) PassengerRepository {
	return &PGPassengerRepository{db: db, lockTimeout: lockTimeoutMS}
}

// Reserve locks the flight row so that concurrent reservations on the same
// flight are serialised, then checks capacity and identity uniqueness,
// inserts the passenger and bumps the counter before committing. The UNIQUE
// constraints stay authoritative for identities racing across flights.
func (r *PGPassengerRepository) Reserve(ctx context.Context, p *domain.Passenger) error {
	tx, err := beginLocked(ctx, r.db, r.lockTimeout)
	if err != nil {
		return classify("begin reservation", err)
	}
	defer tx.Rollback(ctx)

	var capacity, booked int
	err = tx.QueryRow(ctx, `SELECT capacity, booked_count FROM flights WHERE id=$1 FOR UPDATE`, p.FlightID).
		Scan(&capacity, &booked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNoSuchFlight
		}
		return classify("lock flight", err)
	}
	if booked >= capacity {
		return domain.ErrFlightFull
	}

	taken, err := takenIdentity(ctx, tx, p)
	if err != nil {
		return classify("check passenger identity", err)
	}
	if taken != "" {
		return domain.DuplicateError(taken)
	}

	if err := tx.QueryRow(ctx, `INSERT INTO passengers (name, passport, contact, email, flight_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		p.Name, p.Passport, p.Contact, p.Email, p.FlightID).Scan(&p.ID, &p.CreatedAt); err != nil {
		return classify("insert passenger", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE flights SET booked_count = booked_count + 1, updated_at = now() WHERE id=$1`, p.FlightID); err != nil {
		return classify("increment booked count", err)
	}

	return classify("commit reservation", tx.Commit(ctx))
}

// takenIdentity reports the first identity field already in use, checked in
// passport, contact, email order. It returns "" when all three are free.
func takenIdentity(ctx context.Context, tx pgx.Tx, p *domain.Passenger) (domain.IdentityField, error) {
	var passport, contact, email bool
	err := tx.QueryRow(ctx, `SELECT
			COALESCE(bool_or(passport = $1), false),
			COALESCE(bool_or(contact = $2), false),
			COALESCE(bool_or(email = $3), false)
		FROM passengers
		WHERE passport = $1 OR contact = $2 OR email = $3`,
		p.Passport, p.Contact, p.Email).Scan(&passport, &contact, &email)
	switch {
	case err != nil:
		return "", err
	case passport:
		return domain.FieldPassport, nil
	case contact:
		return domain.FieldContact, nil
	case email:
		return domain.FieldEmail, nil
	}
	return "", nil
}

func (r *PGPassengerRepository) Cancel(ctx context.Context, id int64) (*domain.Passenger, error) {
	tx, err := beginLocked(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, classify("begin cancellation", err)
	}
	defer tx.Rollback(ctx)

	var p domain.Passenger
	err = tx.QueryRow(ctx, `DELETE FROM passengers WHERE id=$1 RETURNING `+passengerColumns, id).Scan(passengerDest(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPassengerNotFound
		}
		return nil, classify("delete passenger", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE flights SET booked_count = booked_count - 1, updated_at = now() WHERE id=$1`, p.FlightID)
	if err != nil {
		return nil, classify("decrement booked count", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, classify("decrement booked count", errors.New("owning flight row missing"))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify("commit cancellation", err)
	}
	return &p, nil
}

func (r *PGPassengerRepository) List(ctx context.Context) ([]domain.Passenger, error) {
	rows, err := r.db.Query(ctx, `SELECT `+passengerColumns+` FROM passengers ORDER BY id`)
	if err != nil {
		return nil, classify("list passengers", err)
	}
	defer rows.Close()

	passengers := make([]domain.Passenger, 0)
	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(passengerDest(&p)...); err != nil {
			return nil, classify("scan passenger", err)
		}
		passengers = append(passengers, p)
	}
	return passengers, classify("list passengers", rows.Err())
}

func (r *PGPassengerRepository) ListWithFlights(ctx context.Context) ([]domain.PassengerWithFlight, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, passport, contact, email, created_at,
			flight_id, flight_name, origin, destination, capacity, booked_count, flight_created_at, flight_updated_at
		FROM flight_passenger_view
		ORDER BY id`)
	if err != nil {
		return nil, classify("list passengers with flights", err)
	}
	defer rows.Close()

	result := make([]domain.PassengerWithFlight, 0)
	for rows.Next() {
		var pf domain.PassengerWithFlight
		p, f := &pf.Passenger, &pf.Flight
		if err := rows.Scan(&p.ID, &p.Name, &p.Passport, &p.Contact, &p.Email, &p.CreatedAt,
			&f.ID, &f.Name, &f.Origin, &f.Destination, &f.Capacity, &f.BookedCount, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, classify("scan passenger with flight", err)
		}
		p.FlightID = f.ID
		result = append(result, pf)
	}
	return result, classify("list passengers with flights", rows.Err())
}

func (r *PGPassengerRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.PassengerContact, error) {
	rows, err := r.db.Query(ctx, `SELECT name, passport, contact, email FROM passengers WHERE flight_id=$1 ORDER BY name, id`, flightID)
	if err != nil {
		return nil, classify("list flight passengers", err)
	}
	defer rows.Close()

	result := make([]domain.PassengerContact, 0)
	for rows.Next() {
		var pc domain.PassengerContact
		if err := rows.Scan(&pc.Name, &pc.Passport, &pc.Contact, &pc.Email); err != nil {
			return nil, classify("scan flight passenger", err)
		}
		result = append(result, pc)
	}
	return result, classify("list flight passengers", rows.Err())
}

var existsQueries = map[domain.IdentityField]string{
	domain.FieldPassport: `SELECT EXISTS (SELECT 1 FROM passengers WHERE passport=$1)`,
	domain.FieldContact:  `SELECT EXISTS (SELECT 1 FROM passengers WHERE contact=$1)`,
	domain.FieldEmail:    `SELECT EXISTS (SELECT 1 FROM passengers WHERE email=$1)`,
}

func (r *PGPassengerRepository) ExistsWith(ctx context.Context, field domain.IdentityField, value string) (bool, error) {
	query, ok := existsQueries[field]
	if !ok {
		_, err := domain.ParseIdentityField(string(field))
		return false, err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, query, value).Scan(&exists); err != nil {
		return false, classify("check passenger "+string(field), err)
	}
	return exists, nil
}

func passengerDest(p *domain.Passenger) []any {
	return []any{&p.ID, &p.Name, &p.Passport, &p.Contact, &p.Email, &p.FlightID, &p.CreatedAt}
}

var _ PassengerRepository = (*PGPassengerRepository)(nil)

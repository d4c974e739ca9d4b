package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `id, name, origin, destination, capacity, booked_count, created_at, updated_at`

type PGFlightRepository struct {
	db          *pgxpool.Pool
	lockTimeout int
}

// NewFlightRepository binds the repository to db. lockTimeoutMS bounds how
// long a write waits for a flight row lock; zero leaves the server default.
func NewFlightRepository(db *pgxpool.Pool, lockTimeoutMS int) FlightRepository {
	return &PGFlightRepository{db: db, lockTimeout: lockTimeoutMS}
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (name, origin, destination, capacity, booked_count)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING `+flightColumns,
		flight.Name, flight.Origin, flight.Destination, flight.Capacity).
		Scan(flightDest(flight)...)
	return classify("create flight", err)
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY id`)
	if err != nil {
		return nil, classify("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(flightDest(&f)...); err != nil {
			return nil, classify("scan flight", err)
		}
		flights = append(flights, f)
	}
	return flights, classify("list flights", rows.Err())
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var f domain.Flight
	err := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id).Scan(flightDest(&f)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoSuchFlight
		}
		return nil, classify("get flight", err)
	}
	return &f, nil
}

func (r *PGFlightRepository) UpdateCapacity(ctx context.Context, id int64, capacity int) (*domain.Flight, error) {
	tx, err := beginLocked(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, classify("begin capacity update", err)
	}
	defer tx.Rollback(ctx)

	var booked int
	if err := tx.QueryRow(ctx, `SELECT booked_count FROM flights WHERE id=$1 FOR UPDATE`, id).Scan(&booked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoSuchFlight
		}
		return nil, classify("lock flight", err)
	}
	if capacity < booked {
		return nil, domain.ErrCapacityBelowBooked
	}

	var f domain.Flight
	if err := tx.QueryRow(ctx, `UPDATE flights SET capacity=$2, updated_at=now() WHERE id=$1 RETURNING `+flightColumns, id, capacity).
		Scan(flightDest(&f)...); err != nil {
		return nil, classify("update capacity", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, classify("commit capacity update", err)
	}
	return &f, nil
}

// Delete removes the flight and, through the cascading foreign key, its
// passengers. Lock waits are bounded like every other write.
func (r *PGFlightRepository) Delete(ctx context.Context, id int64) (int, error) {
	tx, err := beginLocked(ctx, r.db, r.lockTimeout)
	if err != nil {
		return 0, classify("begin flight delete", err)
	}
	defer tx.Rollback(ctx)

	var booked int
	if err := tx.QueryRow(ctx, `DELETE FROM flights WHERE id=$1 RETURNING booked_count`, id).Scan(&booked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNoSuchFlight
		}
		return 0, classify("delete flight", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, classify("commit flight delete", err)
	}
	return booked, nil
}

// CombinedIdentitySet runs both filtered selects joined with UNION, which
// removes duplicate rows across the two halves.
func (r *PGFlightRepository) CombinedIdentitySet(ctx context.Context, a, b domain.FlightFilter) ([]domain.FlightIdentity, error) {
	whereA, args := filterClause(a, nil)
	whereB, args := filterClause(b, args)
	query := `SELECT id, name, origin, destination FROM flights` + whereA +
		` UNION SELECT id, name, origin, destination FROM flights` + whereB +
		` ORDER BY id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("combined flight query", err)
	}
	defer rows.Close()

	result := make([]domain.FlightIdentity, 0)
	for rows.Next() {
		var fi domain.FlightIdentity
		if err := rows.Scan(&fi.ID, &fi.Name, &fi.Origin, &fi.Destination); err != nil {
			return nil, classify("scan flight identity", err)
		}
		result = append(result, fi)
	}
	return result, classify("combined flight query", rows.Err())
}

func (r *PGFlightRepository) AuditCounters(ctx context.Context) ([]domain.CounterDrift, error) {
	rows, err := r.db.Query(ctx, `SELECT f.id, f.booked_count, COUNT(p.id)
		FROM flights f
		LEFT JOIN passengers p ON p.flight_id = f.id
		GROUP BY f.id, f.booked_count
		HAVING f.booked_count <> COUNT(p.id)
		ORDER BY f.id`)
	if err != nil {
		return nil, classify("audit counters", err)
	}
	defer rows.Close()

	drifts := make([]domain.CounterDrift, 0)
	for rows.Next() {
		var d domain.CounterDrift
		if err := rows.Scan(&d.FlightID, &d.BookedCount, &d.Passengers); err != nil {
			return nil, classify("scan counter drift", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, classify("audit counters", rows.Err())
}

func flightDest(f *domain.Flight) []any {
	return []any{&f.ID, &f.Name, &f.Origin, &f.Destination, &f.Capacity, &f.BookedCount, &f.CreatedAt, &f.UpdatedAt}
}

// filterClause renders f as a WHERE clause whose placeholders continue
// after the arguments already in args.
func filterClause(f domain.FlightFilter, args []any) (string, []any) {
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CapacityAbove != nil {
		add("capacity > $%d", *f.CapacityAbove)
	}
	if f.AvailableBelow != nil {
		add("capacity - booked_count < $%d", *f.AvailableBelow)
	}
	if f.Origin != "" {
		add("origin = $%d", f.Origin)
	}
	if f.Destination != "" {
		add("destination = $%d", f.Destination)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// beginLocked opens a transaction whose row-lock waits fail with
// lock_not_available after timeoutMS instead of blocking indefinitely.
func beginLocked(ctx context.Context, db *pgxpool.Pool, timeoutMS int) (pgx.Tx, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	if timeoutMS > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeoutMS)); err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
	}
	return tx, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)

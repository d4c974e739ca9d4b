package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names are matched when translating unique violations.
const (
	constraintPassport = "passengers_passport_key"
	constraintContact  = "passengers_contact_key"
	constraintEmail    = "passengers_email_key"
	constraintBooked   = "flights_booked_count_range"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS flights (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT        NOT NULL,
		origin       TEXT        NOT NULL,
		destination  TEXT        NOT NULL,
		capacity     INTEGER     NOT NULL CHECK (capacity >= 100),
		booked_count INTEGER     NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT ` + constraintBooked + ` CHECK (booked_count >= 0 AND booked_count <= capacity)
	)`,
	`CREATE TABLE IF NOT EXISTS passengers (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT        NOT NULL,
		passport   TEXT        NOT NULL CONSTRAINT ` + constraintPassport + ` UNIQUE,
		contact    TEXT        NOT NULL CONSTRAINT ` + constraintContact + ` UNIQUE,
		email      TEXT        NOT NULL CONSTRAINT ` + constraintEmail + ` UNIQUE,
		flight_id  BIGINT      NOT NULL REFERENCES flights (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS passengers_flight_name_idx ON passengers (flight_id, name)`,
	`CREATE OR REPLACE VIEW flight_passenger_view AS
		SELECT p.id, p.name, p.passport, p.contact, p.email, p.created_at,
		       f.id AS flight_id, f.name AS flight_name, f.origin, f.destination,
		       f.capacity, f.booked_count, f.created_at AS flight_created_at, f.updated_at AS flight_updated_at
		FROM passengers p
		JOIN flights f ON f.id = p.flight_id`,
}

// Migrate creates the tables, indexes and the joined view if they are missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

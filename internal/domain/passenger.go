package domain

import (
	"fmt"
	"time"
)

type Passenger struct {
	ID        int64
	Name      string
	Passport  string
	Contact   string
	Email     string
	FlightID  int64
	CreatedAt time.Time
}

// PassengerContact is a manifest line of a single flight.
type PassengerContact struct {
	Name     string
	Passport string
	Contact  string
	Email    string
}

type PassengerWithFlight struct {
	Passenger Passenger
	Flight    Flight
}

// IdentityField names one of the globally unique passenger attributes.
type IdentityField string

const (
	FieldPassport IdentityField = "passport"
	FieldContact  IdentityField = "contact"
	FieldEmail    IdentityField = "email"
)

// IdentityFields lists the unique attributes in the order duplicates are reported.
var IdentityFields = []IdentityField{FieldPassport, FieldContact, FieldEmail}

func ParseIdentityField(s string) (IdentityField, error) {
	switch f := IdentityField(s); f {
	case FieldPassport, FieldContact, FieldEmail:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown identity field %q", ErrInvalidInput, s)
}

// Value returns the passenger's value for the field.
func (p Passenger) Value(field IdentityField) string {
	switch field {
	case FieldPassport:
		return p.Passport
	case FieldContact:
		return p.Contact
	case FieldEmail:
		return p.Email
	}
	return ""
}

package domain

import "errors"

// Reason identifies why the store refused a command.
type Reason string

const (
	ReasonNoSuchFlight        Reason = "no-such-flight"
	ReasonFlightFull          Reason = "flight-full"
	ReasonDuplicatePassport   Reason = "duplicate-passport"
	ReasonDuplicateContact    Reason = "duplicate-contact"
	ReasonDuplicateEmail      Reason = "duplicate-email"
	ReasonCapacityBelowBooked Reason = "capacity-below-booked"
)

// Rejection is a business-rule refusal. It is comparable, so the sentinels
// below work with errors.Is.
type Rejection struct {
	Reason Reason
}

func (r Rejection) Error() string {
	switch r.Reason {
	case ReasonNoSuchFlight:
		return "flight does not exist"
	case ReasonFlightFull:
		return "flight has no available seats"
	case ReasonDuplicatePassport:
		return "passport number already exists"
	case ReasonDuplicateContact:
		return "contact number already exists"
	case ReasonDuplicateEmail:
		return "email already exists"
	case ReasonCapacityBelowBooked:
		return "capacity is below the number of booked passengers"
	}
	return "rejected: " + string(r.Reason)
}

var (
	ErrNoSuchFlight        error = Rejection{Reason: ReasonNoSuchFlight}
	ErrFlightFull          error = Rejection{Reason: ReasonFlightFull}
	ErrDuplicatePassport   error = Rejection{Reason: ReasonDuplicatePassport}
	ErrDuplicateContact    error = Rejection{Reason: ReasonDuplicateContact}
	ErrDuplicateEmail      error = Rejection{Reason: ReasonDuplicateEmail}
	ErrCapacityBelowBooked error = Rejection{Reason: ReasonCapacityBelowBooked}
)

var (
	ErrPassengerNotFound = errors.New("passenger not found")
	ErrInvalidInput      = errors.New("invalid input")
	// ErrUnavailable marks storage faults and lock contention. Callers may retry.
	ErrUnavailable = errors.New("booking store temporarily unavailable")
)

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var r Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}

// DuplicateError maps an identity field to its rejection.
func DuplicateError(field IdentityField) error {
	switch field {
	case FieldPassport:
		return ErrDuplicatePassport
	case FieldContact:
		return ErrDuplicateContact
	case FieldEmail:
		return ErrDuplicateEmail
	}
	return nil
}

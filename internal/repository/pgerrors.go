package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeAdminShutdown        = "57P01"
)

// classify maps a storage error onto the domain taxonomy. Business
// violations become rejections, contention and transport faults become
// ErrUnavailable, everything else is wrapped with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if dup := duplicateFromConstraint(pgErr.ConstraintName); dup != nil {
				return dup
			}
		case codeCheckViolation:
			if pgErr.ConstraintName == constraintBooked {
				return domain.ErrFlightFull
			}
		case codeForeignKeyViolation:
			return domain.ErrNoSuchFlight
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable,
			codeQueryCanceled, codeAdminShutdown:
			return fmt.Errorf("%w: %s: %v", domain.ErrUnavailable, op, err)
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("%w: %s: %v", domain.ErrUnavailable, op, err)
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", domain.ErrUnavailable, op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %s: %v", domain.ErrUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func duplicateFromConstraint(name string) error {
	switch name {
	case constraintPassport:
		return domain.ErrDuplicatePassport
	case constraintContact:
		return domain.ErrDuplicateContact
	case constraintEmail:
		return domain.ErrDuplicateEmail
	}
	return nil
}

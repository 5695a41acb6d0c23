package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when an operation references a row that does not
// exist. Repositories translate pgx.ErrNoRows into this sentinel so callers
// never depend on driver errors.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state: an
// overlapping appointment slot, a second open cash register, settling an
// already-settled bill.
var ErrConflict = errors.New("conflict")

// ErrInsufficientStock is returned when a stock-out or sale would drive a
// product quantity negative.
var ErrInsufficientStock = errors.New("insufficient stock")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	// 23P01 exclusion violation (overlapping slot), 23505 unique violation.
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

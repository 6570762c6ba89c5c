package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the postgres error code for a duplicate key
const uniqueViolation = "23505"

var (
	// ErrAccountExists is returned when an account with the same name was created concurrently
	ErrAccountExists = errors.New("account already exists")
)

// IsUniqueViolation reports whether err is a postgres duplicate key error
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsNotFound reports whether a :one query found no row
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

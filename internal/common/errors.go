package common

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound        = errors.New("record not found")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrEditConflict          = errors.New("edit conflict")
	ErrAuthenticationFailure = errors.New("unauthorized access")
)

// ForeignKeyError reports whether err is a postgres foreign key violation on the named constraint.
func ForeignKeyError(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" && pqErr.Constraint == constraint
	}

	return false
}

// UniqueViolation reports whether err is a postgres unique violation on the named constraint.
func UniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}

	return false
}

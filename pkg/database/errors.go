package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes returned by postgres.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// IsUniqueViolation reports whether err was raised by a unique index.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

func IsCheckViolation(err error) bool {
	return hasCode(err, codeCheckViolation)
}

// IsInvalidText reports a value postgres could not parse, such as a malformed uuid.
func IsInvalidText(err error) bool {
	return hasCode(err, codeInvalidText)
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "sales-crm/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgNumericOutOfRange   = "22003"
)

// mapPgError classifies a storage error into the application taxonomy.
// entity names the record for NotFound messages.
func mapPgError(err error, entity string) error {
	if err == nil {
		return nil
	}

	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if entity == "" {
			entity = "record"
		}
		return apperrors.NewNotFoundError(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperrors.NewConflictError("%s already exists", duplicateSubject(pgErr))
		case pgForeignKeyViolation:
			return apperrors.NewValidationError("referenced record does not exist (%s)", pgErr.ConstraintName)
		case pgNumericOutOfRange:
			return apperrors.NewValidationError("value is out of range")
		case pgInvalidText, pgCheckViolation, pgNotNullViolation:
			return apperrors.NewValidationError("invalid value: %s", pgErr.Message)
		}
	}
	return apperrors.NewUpstreamError(err)
}

func duplicateSubject(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "uq_customers_phone":
		return "a customer with this phone"
	case "uq_customers_email":
		return "a customer with this email"
	case "users_email_key":
		return "a user with this email"
	case "":
		return "record"
	default:
		return fmt.Sprintf("record (%s)", pgErr.ConstraintName)
	}
}

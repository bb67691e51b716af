package repositories

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"sales-crm/internal/entities"
	apperrors "sales-crm/pkg/errors"
)

func TestMapPgError(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{pgx.ErrNoRows, apperrors.ErrNotFound},
		{fmt.Errorf("scan: %w", pgx.ErrNoRows), apperrors.ErrNotFound},
		{&pgconn.PgError{Code: "23505", ConstraintName: "uq_customers_phone"}, apperrors.ErrConflict},
		{&pgconn.PgError{Code: "23503"}, apperrors.ErrValidation},
		{&pgconn.PgError{Code: "22P02"}, apperrors.ErrValidation},
		{&pgconn.PgError{Code: "23514"}, apperrors.ErrValidation},
		{&pgconn.PgError{Code: "22003", Message: "numeric field overflow"}, apperrors.ErrValidation},
		{&pgconn.PgError{Code: "57P01"}, apperrors.ErrUpstream},
		{fmt.Errorf("connection refused"), apperrors.ErrUpstream},
		{apperrors.NewForbiddenError("x"), apperrors.ErrForbidden},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, mapPgError(tc.err, "customer"), tc.kind, "%v", tc.err)
	}
	assert.NoError(t, mapPgError(nil, ""))
	assert.Equal(t, "customer not found", mapPgError(pgx.ErrNoRows, "customer").Error())
	assert.Equal(t, "value is out of range", mapPgError(&pgconn.PgError{Code: "22003"}, "payment").Error())
	assert.Contains(t, mapPgError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_customers_phone"}, "").Error(), "phone")
}

func TestLookupDeleteError(t *testing.T) {
	err := deleteError(&pgconn.PgError{Code: "23503", ConstraintName: "customers_stage_id_fkey"}, entities.LookupStages)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "stage is in use", err.Error())

	err = deleteError(&pgconn.PgError{Code: "57P01"}, entities.LookupStages)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

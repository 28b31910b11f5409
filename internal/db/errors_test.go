package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *apperr.Error
	}{
		{"no rows", pgx.ErrNoRows, apperr.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, apperr.ErrAlreadyExists},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperr.ErrNotFound},
		{"check", &pgconn.PgError{Code: "23514"}, apperr.ErrInvalidArgument},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, apperr.ErrInternal},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperr.ErrStoreUnavailable},
		{"transport", errors.New("connection reset by peer"), apperr.ErrStoreUnavailable},
		{"already typed", apperr.New(apperr.InsufficientStock, "not enough available doses"), apperr.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, TranslateError(tt.err, "vaccine"), tt.want)
		})
	}

	assert.NoError(t, TranslateError(nil, "vaccine"))
}

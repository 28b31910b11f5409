package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// TranslateError turns driver errors into apperr kinds. what names the row
// for NotFound / AlreadyExists messages.
func TranslateError(err error, what string) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, what+" not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return apperr.Wrap(apperr.AlreadyExists, what+" already exists", err)
		case foreignKeyViolation:
			return apperr.Wrap(apperr.NotFound, "referenced row for "+what+" not found", err)
		case checkViolation:
			return apperr.Wrap(apperr.InvalidArgument, "constraint violated for "+what, err)
		}
		return apperr.Wrap(apperr.Internal, "query "+what, err)
	}

	// connection refused, timeouts, cancelled contexts, broken pipes
	return apperr.Wrap(apperr.StoreUnavailable, "store unavailable", err)
}

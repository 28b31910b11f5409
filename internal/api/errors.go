package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidArgument, apperr.InvalidDate:
		return http.StatusBadRequest
	case apperr.Unauthenticated, apperr.AuthFailed:
		return http.StatusUnauthorized
	case apperr.WrongRole, apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.AlreadyExists, apperr.AlreadyAuthenticated, apperr.InsufficientStock, apperr.NoCaregiverAvailable:
		return http.StatusConflict
	case apperr.StoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeAppError maps a typed error onto a response. Server-side failures are
// logged with the request id; their details stay out of the body.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	details := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("kind", kind.String()).Msg("request failed")
		if status == http.StatusInternalServerError {
			details = "internal error"
		}
	}
	writeError(w, status, kind.String(), details)
}

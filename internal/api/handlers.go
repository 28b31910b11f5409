package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/auth"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

type handlers struct {
	engine   *booking.Engine
	accounts *account.Service
	tokens   *auth.Tokens
	tokenTTL time.Duration
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "could not parse JSON", err)
	}
	return nil
}

func (h *handlers) register(role identity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := decode(r, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		id, err := h.accounts.Register(r.Context(), req.Username, req.Password, role)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, AccountResponse{Username: id.Username, Role: string(id.Role)})
	}
}

func (h *handlers) login(role identity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := decode(r, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		id, err := h.accounts.Verify(r.Context(), req.Username, req.Password, role)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		token, err := h.tokens.Make(id)
		if err != nil {
			writeAppError(w, r, apperr.Wrap(apperr.Internal, "issue token", err))
			return
		}

		writeJSON(w, http.StatusOK, TokenResponse{
			Token:     token,
			Username:  id.Username,
			Role:      string(id.Role),
			ExpiresIn: int64(h.tokenTTL.Seconds()),
		})
	}
}

func (h *handlers) schedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.engine.SearchSchedule(r.Context(), IdentityFrom(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

func (h *handlers) reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	appt, err := h.engine.Reserve(r.Context(), IdentityFrom(r.Context()), req.Date, req.Vaccine)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *handlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListMyAppointments(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAppError(w, r, apperr.Wrap(apperr.InvalidArgument, "please enter a valid appointment id", err))
		return
	}

	appt, err := h.engine.Cancel(r.Context(), IdentityFrom(r.Context()), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *handlers) uploadAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	if err := h.engine.UploadAvailability(r.Context(), IdentityFrom(r.Context()), req.Date); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) addDoses(w http.ResponseWriter, r *http.Request) {
	var req AddDosesRequest
	if err := decode(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	stock, err := h.engine.AddDoses(r.Context(), IdentityFrom(r.Context()), chi.URLParam(r, "name"), req.Count)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VaccineResponse{Name: stock.Name, AvailableDoses: stock.AvailableDoses})
}

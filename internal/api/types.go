package api

import (
	"encoding/json"
	"net/http"

	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AccountResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}

type ReserveRequest struct {
	Date    string `json:"date"`
	Vaccine string `json:"vaccine"`
}

type AvailabilityRequest struct {
	Date string `json:"date"`
}

type AddDosesRequest struct {
	Count int `json:"count"`
}

type AppointmentResponse struct {
	ID        int64  `json:"appointment_id"`
	Caregiver string `json:"caregiver"`
	Patient   string `json:"patient"`
	Vaccine   string `json:"vaccine"`
	Date      string `json:"date"`
}

type VaccineResponse struct {
	Name           string `json:"name"`
	AvailableDoses int    `json:"available_doses"`
}

type ScheduleResponse struct {
	Date       string            `json:"date"`
	Caregivers []string          `json:"caregivers"`
	Vaccines   []VaccineResponse `json:"vaccines"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		Caregiver: a.Caregiver,
		Patient:   a.Patient,
		Vaccine:   a.Vaccine,
		Date:      a.Date.Format(availability.DateLayout),
	}
}

func toScheduleResponse(s booking.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		Date:       s.Date.Format(availability.DateLayout),
		Caregivers: make([]string, 0, len(s.Caregivers)),
		Vaccines:   make([]VaccineResponse, 0, len(s.Doses)),
	}
	resp.Caregivers = append(resp.Caregivers, s.Caregivers...)
	for _, v := range s.Doses {
		resp.Vaccines = append(resp.Vaccines, VaccineResponse{Name: v.Name, AvailableDoses: v.AvailableDoses})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

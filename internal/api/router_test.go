package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/auth"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/logger"
	"github.com/hackgods/vaccine-scheduling/internal/metrics"
	redisclient "github.com/hackgods/vaccine-scheduling/internal/redis"
	"github.com/hackgods/vaccine-scheduling/internal/storage/memory"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	store := memory.New()
	reg := prometheus.NewRegistry()
	engine := booking.NewEngine(store, redisclient.NewLocalLocker(time.Second), store, metrics.New(reg, "test"), logger.Nop())

	return &testServer{handler: NewRouter(RouterConfig{
		Engine:   engine,
		Accounts: account.NewService(store.Accounts(), account.NewBcryptHasher(bcrypt.MinCost)),
		Tokens:   auth.NewTokens("test-secret", time.Hour),
		TokenTTL: time.Hour,
		Limiter:  limiter,
		Gatherer: reg,
		Logger:   logger.Nop(),
		Env:      "test",
	})}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// signup registers and logs in, returning the bearer token.
func (s *testServer) signup(t *testing.T, role, username string) string {
	t.Helper()
	creds := CredentialsRequest{Username: username, Password: "password123"}

	rec := s.do(t, http.MethodPost, "/v1/"+role+"s/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/"+role+"s/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t, nil)
	amy := s.signup(t, "caregiver", "amy")
	p1 := s.signup(t, "patient", "p1")
	p2 := s.signup(t, "patient", "p2")

	rec := s.do(t, http.MethodPost, "/v1/availability", amy, AvailabilityRequest{Date: "2024-01-10"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/vaccines/pfizer/doses", amy, AddDosesRequest{Count: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/schedule?date=2024-01-10", p1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sched ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sched))
	assert.Equal(t, []string{"amy"}, sched.Caregivers)
	assert.Equal(t, []VaccineResponse{{Name: "pfizer", AvailableDoses: 1}}, sched.Vaccines)

	rec = s.do(t, http.MethodPost, "/v1/appointments", p1, ReserveRequest{Date: "2024-01-10", Vaccine: "pfizer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, AppointmentResponse{ID: 1, Caregiver: "amy", Patient: "p1", Vaccine: "pfizer", Date: "2024-01-10"}, appt)

	rec = s.do(t, http.MethodPost, "/v1/appointments", p2, ReserveRequest{Date: "2024-01-10", Vaccine: "pfizer"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_caregiver_available", decodeError(t, rec).Error)

	rec = s.do(t, http.MethodGet, "/v1/appointments", amy, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []AppointmentResponse{appt}, list)

	rec = s.do(t, http.MethodDelete, "/v1/appointments/1", p2, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/v1/appointments/1", p1, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/v1/appointments/1", p1, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t, nil)
	amy := s.signup(t, "caregiver", "amy")
	p1 := s.signup(t, "patient", "p1")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"no token", http.MethodGet, "/v1/appointments", "", nil, http.StatusUnauthorized, "unauthenticated"},
		{"bad token", http.MethodGet, "/v1/appointments", "garbage", nil, http.StatusUnauthorized, "unauthenticated"},
		{"wrong role reserve", http.MethodPost, "/v1/appointments", amy, ReserveRequest{Date: "2024-01-10", Vaccine: "pfizer"}, http.StatusForbidden, "wrong_role"},
		{"wrong role upload", http.MethodPost, "/v1/availability", p1, AvailabilityRequest{Date: "2024-01-10"}, http.StatusForbidden, "wrong_role"},
		{"bad date", http.MethodGet, "/v1/schedule?date=10/01/2024", p1, nil, http.StatusBadRequest, "invalid_date"},
		{"bad id", http.MethodDelete, "/v1/appointments/abc", p1, nil, http.StatusBadRequest, "invalid_argument"},
		{"bad count", http.MethodPost, "/v1/vaccines/pfizer/doses", amy, AddDosesRequest{Count: -1}, http.StatusBadRequest, "invalid_argument"},
		{"no caregiver", http.MethodPost, "/v1/appointments", p1, ReserveRequest{Date: "2024-01-10", Vaccine: "pfizer"}, http.StatusConflict, "no_caregiver_available"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeError(t, rec).Error)
		})
	}
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.signup(t, "patient", "p1")

	rec := s.do(t, http.MethodPost, "/v1/patients/register", "", CredentialsRequest{Username: "p1", Password: "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/patients/login", "", CredentialsRequest{Username: "p1", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_failed", decodeError(t, rec).Error)

	// a patient account does not log in as caregiver
	rec = s.do(t, http.MethodPost, "/v1/caregivers/login", "", CredentialsRequest{Username: "p1", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/patients/register", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, NewRateLimiter(0.001, 2))
	creds := CredentialsRequest{Username: "ghost", Password: "password123"}

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/v1/patients/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/v1/patients/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ready ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	p1 := s.signup(t, "patient", "p1")
	s.do(t, http.MethodGet, "/v1/schedule?date=2024-01-10", p1, nil)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_operations_total{operation="search_schedule",outcome="ok"} 1`)
}

package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/logger"
	redisclient "github.com/hackgods/vaccine-scheduling/internal/redis"
	"github.com/hackgods/vaccine-scheduling/internal/storage/memory"
)

type harness struct {
	sh  *Shell
	out *bytes.Buffer
}

func newHarness() *harness {
	store := memory.New()
	engine := booking.NewEngine(store, redisclient.NewLocalLocker(time.Second), store, nil, logger.Nop())
	accounts := account.NewService(store.Accounts(), account.NewBcryptHasher(bcrypt.MinCost))
	out := &bytes.Buffer{}
	return &harness{sh: New(engine, accounts, out, logger.Nop()), out: out}
}

// run executes line and returns what it printed.
func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	h.out.Reset()
	h.sh.Exec(context.Background(), line)
	return h.out.String()
}

func TestReservationSession(t *testing.T) {
	h := newHarness()

	assert.Equal(t, "Created user amy\n", h.run(t, "create_caregiver amy password123"))
	assert.Equal(t, "Created user bob\n", h.run(t, "create_caregiver bob password123"))
	assert.Equal(t, "Created user p1\n", h.run(t, "create_patient p1 password123"))
	assert.Equal(t, "Created user p2\n", h.run(t, "create_patient p2 password123"))

	assert.Equal(t, "Logged in as: amy\n", h.run(t, "login_caregiver amy password123"))
	assert.Equal(t, "Availability uploaded!\n", h.run(t, "upload_availability 2024-01-10"))
	assert.Equal(t, "You're already available on this date!\n", h.run(t, "upload_availability 2024-01-10"))
	assert.Equal(t, "Doses updated!\n", h.run(t, "add_doses pfizer 1"))
	assert.Equal(t, "Successfully logged out!\n", h.run(t, "logout"))

	h.run(t, "login_caregiver bob password123")
	h.run(t, "upload_availability 2024-01-10")
	h.run(t, "logout")

	h.run(t, "login_patient p1 password123")
	assert.Equal(t,
		"Below are available caregivers for 2024-01-10:\namy\nbob\n\nBelow are available doses for 2024-01-10:\npfizer: 1\n",
		h.run(t, "search_caregiver_schedule 2024-01-10"))
	assert.Equal(t, "Reservation made with amy on 2024-01-10, appointment ID 1\n", h.run(t, "reserve 2024-01-10 pfizer"))
	assert.Equal(t, "1 pfizer 2024-01-10 amy\n", h.run(t, "show_appointments"))
	h.run(t, "logout")

	h.run(t, "login_patient p2 password123")
	assert.Equal(t, "Not enough available doses!\n", h.run(t, "reserve 2024-01-10 pfizer"))
	assert.Equal(t, "You don't have access to cancel this appointment!\n", h.run(t, "cancel 1"))
	h.run(t, "logout")

	h.run(t, "login_caregiver amy password123")
	assert.Equal(t, "1 pfizer 2024-01-10 p1\n", h.run(t, "show_appointments"))
	assert.Equal(t, "Reservation cancelled successfully with amy on 2024-01-10\n", h.run(t, "cancel 1"))
	assert.Equal(t, "This appointment doesn't exist!\n", h.run(t, "cancel 1"))
	assert.Equal(t, "No appointments scheduled.\n", h.run(t, "show_appointments"))
}

func TestAuthenticationMessages(t *testing.T) {
	h := newHarness()

	assert.Equal(t, "Please login first!\n", h.run(t, "search_caregiver_schedule 2024-01-10"))
	assert.Equal(t, "Please login first!\n", h.run(t, "reserve 2024-01-10 pfizer"))
	assert.Equal(t, "Please login first!\n", h.run(t, "logout"))

	h.run(t, "create_patient p1 password123")
	assert.Equal(t, "Login failed!\n", h.run(t, "login_patient p1 nope-nope"))
	assert.Equal(t, "Login failed!\n", h.run(t, "login_caregiver p1 password123"))

	// creating an account does not log in
	assert.Equal(t, "Please login first!\n", h.run(t, "show_appointments"))

	h.run(t, "login_patient p1 password123")
	assert.Equal(t, "User already logged in!\n", h.run(t, "login_patient p1 password123"))
	assert.Equal(t, "User already logged in!\n", h.run(t, "create_patient p2 password123"))
	assert.Equal(t, "Please login as a caregiver!\n", h.run(t, "upload_availability 2024-01-10"))
	assert.Equal(t, "Please login as a caregiver!\n", h.run(t, "add_doses pfizer 3"))
}

func TestInputErrors(t *testing.T) {
	h := newHarness()

	assert.Equal(t, "Please try again!\n", h.run(t, "   "))
	assert.Equal(t, "Invalid operation name!\n", h.run(t, "book 2024-01-10"))
	assert.Equal(t, "Failed to create user.\n", h.run(t, "create_patient p1"))
	assert.Equal(t, "Username taken, try again!\n", func() string {
		h.run(t, "create_patient p1 password123")
		return h.run(t, "create_patient p1 password123")
	}())
	assert.Equal(t, "Login failed.\n", h.run(t, "login_patient p1"))

	h.run(t, "login_patient p1 password123")
	assert.Equal(t, "Please try again!\n", h.run(t, "reserve 2024-01-10"))
	assert.Equal(t, "Please enter a valid date!\n", h.run(t, "reserve 2024-13-10 pfizer"))
	assert.Equal(t, "No caregiver is available!\n", h.run(t, "reserve 2024-01-10 pfizer"))
	assert.Equal(t, "Please enter a valid appointment ID!\n", h.run(t, "cancel abc"))
	assert.Equal(t, "Please try again!\n", h.run(t, "show_appointments now"))
}

func TestRunStopsOnQuit(t *testing.T) {
	h := newHarness()
	in := strings.NewReader("create_patient p1 password123\nquit\ncreate_patient p2 password123\n")

	require.NoError(t, h.sh.Run(context.Background(), in))
	out := h.out.String()
	assert.Contains(t, out, "Welcome to the COVID-19 Vaccine Reservation Scheduling Application!")
	assert.Contains(t, out, "Created user p1")
	assert.True(t, strings.HasSuffix(out, "Bye!\n"))
	assert.NotContains(t, out, "Created user p2")
}

func TestSentence(t *testing.T) {
	assert.Equal(t, "Please login first!", sentence("please login first"))
	assert.Equal(t, "Login failed.", sentence("Login failed."))
	assert.Equal(t, tryAgain, sentence(""))
}

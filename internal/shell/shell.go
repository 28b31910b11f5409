// Package shell is the interactive command front end. Every command prints
// exactly one outcome, and only after the underlying operation has finished.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

const banner = `
Welcome to the COVID-19 Vaccine Reservation Scheduling Application!
*** Please enter one of the following commands ***
> create_patient <username> <password>
> create_caregiver <username> <password>
> login_patient <username> <password>
> login_caregiver <username> <password>
> search_caregiver_schedule <date>
> reserve <date> <vaccine>
> upload_availability <date>
> cancel <appointment_id>
> add_doses <vaccine> <number>
> show_appointments
> logout
> quit
`

const tryAgain = "Please try again!"

type Shell struct {
	engine   *booking.Engine
	accounts *account.Service
	session  identity.Session
	out      io.Writer
	log      zerolog.Logger
}

func New(engine *booking.Engine, accounts *account.Service, out io.Writer, log zerolog.Logger) *Shell {
	return &Shell{
		engine:   engine,
		accounts: accounts,
		out:      out,
		log:      log.With().Str("component", "shell").Logger(),
	}
}

// Run reads commands from in until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprint(s.out, banner+"\n")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if s.Exec(ctx, scanner.Text()) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		s.println(tryAgain)
		return false
	}

	args := tokens[1:]
	switch tokens[0] {
	case "create_patient":
		s.create(ctx, args, identity.RolePatient)
	case "create_caregiver":
		s.create(ctx, args, identity.RoleCaregiver)
	case "login_patient":
		s.login(ctx, args, identity.RolePatient)
	case "login_caregiver":
		s.login(ctx, args, identity.RoleCaregiver)
	case "search_caregiver_schedule":
		s.searchSchedule(ctx, args)
	case "reserve":
		s.reserve(ctx, args)
	case "upload_availability":
		s.uploadAvailability(ctx, args)
	case "cancel":
		s.cancel(ctx, args)
	case "add_doses":
		s.addDoses(ctx, args)
	case "show_appointments":
		s.showAppointments(ctx, args)
	case "logout":
		s.logout(args)
	case "quit":
		s.println("Bye!")
		return true
	default:
		s.println("Invalid operation name!")
	}
	return false
}

func (s *Shell) create(ctx context.Context, args []string, role identity.Role) {
	if err := s.session.RequireAnonymous(); err != nil {
		s.fail(err, "")
		return
	}
	if len(args) != 2 {
		s.println("Failed to create user.")
		return
	}

	id, err := s.accounts.Register(ctx, args[0], args[1], role)
	if err != nil {
		s.fail(err, "Failed to create user.")
		return
	}
	s.println("Created user " + id.Username)
}

func (s *Shell) login(ctx context.Context, args []string, role identity.Role) {
	if err := s.session.RequireAnonymous(); err != nil {
		s.fail(err, "")
		return
	}
	if len(args) != 2 {
		s.println("Login failed.")
		return
	}

	id, err := s.accounts.Verify(ctx, args[0], args[1], role)
	if err != nil {
		s.fail(err, "Login failed.")
		return
	}
	if err := s.session.Login(id); err != nil {
		s.fail(err, "")
		return
	}
	s.println("Logged in as: " + id.Username)
}

func (s *Shell) searchSchedule(ctx context.Context, args []string) {
	who, ok := s.require()
	if !ok {
		return
	}
	if len(args) != 1 {
		s.println(tryAgain)
		return
	}

	sched, err := s.engine.SearchSchedule(ctx, who, args[0])
	if err != nil {
		s.fail(err, "Error occurred when searching for availability")
		return
	}

	day := sched.Date.Format(availability.DateLayout)
	var b strings.Builder
	fmt.Fprintf(&b, "Below are available caregivers for %s:\n", day)
	for _, c := range sched.Caregivers {
		fmt.Fprintln(&b, c)
	}
	fmt.Fprintf(&b, "\nBelow are available doses for %s:\n", day)
	for _, v := range sched.Doses {
		fmt.Fprintf(&b, "%s: %d\n", v.Name, v.AvailableDoses)
	}
	fmt.Fprint(s.out, b.String())
}

func (s *Shell) reserve(ctx context.Context, args []string) {
	who, ok := s.require(identity.RolePatient)
	if !ok {
		return
	}
	if len(args) != 2 {
		s.println(tryAgain)
		return
	}

	appt, err := s.engine.Reserve(ctx, who, args[0], args[1])
	if err != nil {
		s.fail(err, "Error occurred when reserving")
		return
	}
	s.printf("Reservation made with %s on %s, appointment ID %d\n",
		appt.Caregiver, appt.Date.Format(availability.DateLayout), appt.ID)
}

func (s *Shell) uploadAvailability(ctx context.Context, args []string) {
	who, ok := s.require(identity.RoleCaregiver)
	if !ok {
		return
	}
	if len(args) != 1 {
		s.println(tryAgain)
		return
	}

	if err := s.engine.UploadAvailability(ctx, who, args[0]); err != nil {
		s.fail(err, "Error occurred when uploading availability")
		return
	}
	s.println("Availability uploaded!")
}

func (s *Shell) cancel(ctx context.Context, args []string) {
	who, ok := s.require()
	if !ok {
		return
	}
	if len(args) != 1 {
		s.println(tryAgain)
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		s.println("Please enter a valid appointment ID!")
		return
	}

	appt, err := s.engine.Cancel(ctx, who, id)
	if err != nil {
		s.fail(err, "Error occurred when cancelling")
		return
	}
	s.printf("Reservation cancelled successfully with %s on %s\n",
		appt.Caregiver, appt.Date.Format(availability.DateLayout))
}

func (s *Shell) addDoses(ctx context.Context, args []string) {
	who, ok := s.require(identity.RoleCaregiver)
	if !ok {
		return
	}
	if len(args) != 2 {
		s.println(tryAgain)
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		s.println(tryAgain)
		return
	}

	if _, err := s.engine.AddDoses(ctx, who, args[0], n); err != nil {
		s.fail(err, "Error occurred when adding doses")
		return
	}
	s.println("Doses updated!")
}

func (s *Shell) showAppointments(ctx context.Context, args []string) {
	who, ok := s.require()
	if !ok {
		return
	}
	if len(args) != 0 {
		s.println(tryAgain)
		return
	}

	list, err := s.engine.ListMyAppointments(ctx, who)
	if err != nil {
		s.fail(err, "Error occurred when showing appointments")
		return
	}
	if len(list) == 0 {
		s.println("No appointments scheduled.")
		return
	}

	var b strings.Builder
	for _, a := range list {
		// patients see their caregiver, caregivers see their patient
		other := a.Caregiver
		if who.Role == identity.RoleCaregiver {
			other = a.Patient
		}
		fmt.Fprintf(&b, "%d %s %s %s\n", a.ID, a.Vaccine, a.Date.Format(availability.DateLayout), other)
	}
	fmt.Fprint(s.out, b.String())
}

func (s *Shell) logout(args []string) {
	if len(args) != 0 {
		s.println(tryAgain)
		return
	}
	if err := s.session.Logout(); err != nil {
		s.fail(err, "")
		return
	}
	s.println("Successfully logged out!")
}

// require prints the auth failure itself and reports whether to go on.
func (s *Shell) require(roles ...identity.Role) (identity.Identity, bool) {
	who := s.session.Current()
	if err := identity.Require(who, roles...); err != nil {
		s.fail(err, "")
		return identity.Identity{}, false
	}
	return who, true
}

// fail prints the outcome for err. Store and internal failures print
// fallback and are logged; everything else prints the error's own message.
func (s *Shell) fail(err error, fallback string) {
	switch apperr.KindOf(err) {
	case apperr.Internal, apperr.DataIntegrity, apperr.StoreUnavailable:
		s.log.Error().Err(err).Msg("command failed")
		if fallback != "" {
			s.println(fallback)
			return
		}
	}
	s.println(sentence(apperr.Message(err)))
}

func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return tryAgain
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	if !strings.ContainsAny(string(r[len(r)-1]), ".!?") {
		r = append(r, '!')
	}
	return string(r)
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

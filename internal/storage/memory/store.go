// Package memory is an in-process store with the same transactional contract
// as the Postgres store. Every unit of work runs against a private copy of the
// state that replaces the shared state only when the unit succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
	"github.com/hackgods/vaccine-scheduling/internal/inventory"
)

type slotKey struct {
	date      string
	caregiver string
}

type state struct {
	vaccines     map[string]int
	slots        map[slotKey]time.Time
	appointments map[int64]appointment.Appointment
	lastID       int64
}

func newState() *state {
	return &state{
		vaccines:     make(map[string]int),
		slots:        make(map[slotKey]time.Time),
		appointments: make(map[int64]appointment.Appointment),
	}
}

func (s *state) clone() *state {
	c := &state{
		vaccines:     make(map[string]int, len(s.vaccines)),
		slots:        make(map[slotKey]time.Time, len(s.slots)),
		appointments: make(map[int64]appointment.Appointment, len(s.appointments)),
		lastID:       s.lastID,
	}
	for k, v := range s.vaccines {
		c.vaccines[k] = v
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	return c
}

type Store struct {
	mu       sync.Mutex
	st       *state
	accounts map[identity.Role]map[string]account.Account
	events   []appointment.EventLog
}

func New() *Store {
	return &Store{
		st: newState(),
		accounts: map[identity.Role]map[string]account.Account{
			identity.RolePatient:   {},
			identity.RoleCaregiver: {},
		},
	}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "store unavailable", err)
	}

	work := s.st.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Accounts returns the credential repository.
func (s *Store) Accounts() account.Repository {
	return accountRepo{s: s}
}

func (s *Store) InsertEvent(_ context.Context, ev appointment.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = int64(len(s.events) + 1)
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the event log.
func (s *Store) Events() []appointment.EventLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appointment.EventLog(nil), s.events...)
}

// Snapshot is a comparable view of the committed booking state.
type Snapshot struct {
	Vaccines     map[string]int
	Slots        []availability.Slot
	Appointments []appointment.Appointment
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Vaccines: make(map[string]int, len(s.st.vaccines))}
	for k, v := range s.st.vaccines {
		snap.Vaccines[k] = v
	}
	for k, d := range s.st.slots {
		snap.Slots = append(snap.Slots, availability.Slot{Date: d, Caregiver: k.caregiver})
	}
	sort.Slice(snap.Slots, func(i, j int) bool {
		if !snap.Slots[i].Date.Equal(snap.Slots[j].Date) {
			return snap.Slots[i].Date.Before(snap.Slots[j].Date)
		}
		return snap.Slots[i].Caregiver < snap.Slots[j].Caregiver
	})
	for _, a := range s.st.appointments {
		snap.Appointments = append(snap.Appointments, a)
	}
	sort.Slice(snap.Appointments, func(i, j int) bool {
		return snap.Appointments[i].ID < snap.Appointments[j].ID
	})
	return snap
}

type tx struct {
	st *state
}

func (t *tx) Vaccines() inventory.Repository { return vaccineRepo{st: t.st} }
func (t *tx) Slots() availability.Repository { return slotRepo{st: t.st} }
func (t *tx) Appointments() appointment.Repository { return appointmentRepo{st: t.st} }

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
	"github.com/hackgods/vaccine-scheduling/internal/inventory"
)

type vaccineRepo struct {
	st *state
}

func (r vaccineRepo) Upsert(_ context.Context, name string, delta int) (inventory.VaccineStock, error) {
	doses := r.st.vaccines[name] + delta
	if doses < 0 {
		return inventory.VaccineStock{}, apperr.Newf(apperr.InvalidArgument, "constraint violated for vaccine %s", name)
	}
	r.st.vaccines[name] = doses
	return inventory.VaccineStock{Name: name, AvailableDoses: doses}, nil
}

func (r vaccineRepo) Subtract(_ context.Context, name string, n int) (inventory.VaccineStock, error) {
	doses, ok := r.st.vaccines[name]
	if !ok || doses < n {
		return inventory.VaccineStock{}, apperr.New(apperr.InsufficientStock, "not enough available doses")
	}
	r.st.vaccines[name] = doses - n
	return inventory.VaccineStock{Name: name, AvailableDoses: doses - n}, nil
}

func (r vaccineRepo) List(_ context.Context) ([]inventory.VaccineStock, error) {
	result := make([]inventory.VaccineStock, 0, len(r.st.vaccines))
	for name, doses := range r.st.vaccines {
		result = append(result, inventory.VaccineStock{Name: name, AvailableDoses: doses})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type slotRepo struct {
	st *state
}

func keyOf(s availability.Slot) slotKey {
	return slotKey{date: s.Date.Format(availability.DateLayout), caregiver: s.Caregiver}
}

func (r slotRepo) Insert(_ context.Context, s availability.Slot) error {
	k := keyOf(s)
	if _, ok := r.st.slots[k]; ok {
		return apperr.New(apperr.AlreadyExists, "availability already exists")
	}
	r.st.slots[k] = availability.Day(s.Date)
	return nil
}

func (r slotRepo) ListCaregivers(_ context.Context, date time.Time) ([]string, error) {
	day := date.Format(availability.DateLayout)
	var result []string
	for k := range r.st.slots {
		if k.date == day {
			result = append(result, k.caregiver)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (r slotRepo) Delete(_ context.Context, s availability.Slot) error {
	k := keyOf(s)
	if _, ok := r.st.slots[k]; !ok {
		return apperr.Newf(apperr.NotFound, "%s is not available on %s", s.Caregiver, k.date)
	}
	delete(r.st.slots, k)
	return nil
}

func (r slotRepo) DeleteBefore(_ context.Context, date time.Time) (int64, error) {
	var n int64
	for k, d := range r.st.slots {
		if d.Before(date) {
			delete(r.st.slots, k)
			n++
		}
	}
	return n, nil
}

type appointmentRepo struct {
	st *state
}

func (r appointmentRepo) NextID(_ context.Context) (int64, error) {
	for id := range r.st.appointments {
		if id > r.st.lastID {
			r.st.lastID = id
		}
	}
	r.st.lastID++
	return r.st.lastID, nil
}

func (r appointmentRepo) Create(_ context.Context, a appointment.Appointment) error {
	if _, ok := r.st.appointments[a.ID]; ok {
		return apperr.New(apperr.AlreadyExists, "appointment already exists")
	}
	r.st.appointments[a.ID] = a
	return nil
}

func (r appointmentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.st.appointments[id]; !ok {
		return apperr.Newf(apperr.NotFound, "appointment %d doesn't exist", id)
	}
	delete(r.st.appointments, id)
	return nil
}

func (r appointmentRepo) Get(_ context.Context, id int64) (appointment.Appointment, error) {
	a, ok := r.st.appointments[id]
	if !ok {
		return appointment.Appointment{}, apperr.Newf(apperr.NotFound, "appointment %d not found", id)
	}
	return a, nil
}

func (r appointmentRepo) ListFor(_ context.Context, username string, role identity.Role) ([]appointment.Appointment, error) {
	who := identity.Identity{Username: username, Role: role}
	var result []appointment.Appointment
	for _, a := range r.st.appointments {
		if a.Involves(who) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r appointmentRepo) CaregiverBooked(_ context.Context, caregiver string, date time.Time) (bool, error) {
	day := date.Format(availability.DateLayout)
	for _, a := range r.st.appointments {
		if a.Caregiver == caregiver && a.Date.Format(availability.DateLayout) == day {
			return true, nil
		}
	}
	return false, nil
}

type accountRepo struct {
	s *Store
}

func (r accountRepo) Create(_ context.Context, a account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byName, ok := r.s.accounts[a.Role]
	if !ok {
		return apperr.Newf(apperr.InvalidArgument, "unknown role %q", a.Role)
	}
	if _, ok := byName[a.Username]; ok {
		return apperr.New(apperr.AlreadyExists, string(a.Role)+" already exists")
	}
	byName[a.Username] = a
	return nil
}

func (r accountRepo) Get(_ context.Context, username string, role identity.Role) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[role][username]
	if !ok {
		return account.Account{}, apperr.New(apperr.NotFound, string(role)+" not found")
	}
	return a, nil
}

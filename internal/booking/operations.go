package booking

import (
	"context"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
	"github.com/hackgods/vaccine-scheduling/internal/inventory"
)

// UploadAvailability publishes a slot for the calling caregiver. A date that
// already holds one of the caregiver's appointments counts as published.
func (e *Engine) UploadAvailability(ctx context.Context, who identity.Identity, date string) (err error) {
	defer e.observe("upload_availability", time.Now(), &err)

	if err := identity.Require(who, identity.RoleCaregiver); err != nil {
		return err
	}
	day, err := availability.ParseDate(date)
	if err != nil {
		return err
	}

	err = e.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		booked, err := appointment.NewStore(tx.Appointments()).CaregiverBooked(ctx, who.Username, day)
		if err != nil {
			return err
		}
		if booked {
			return apperr.New(apperr.AlreadyExists, "you already have an appointment on this date")
		}
		return availability.NewRegistry(tx.Slots()).Publish(ctx, day, who.Username)
	})
	if err != nil {
		return err
	}

	e.recordEvent(ctx, appointment.EventAvailabilityUploaded, nil, map[string]any{
		"caregiver": who.Username,
		"date":      day.Format(availability.DateLayout),
	})
	return nil
}

// AddDoses restocks vaccine, creating it on first use.
func (e *Engine) AddDoses(ctx context.Context, who identity.Identity, vaccine string, count int) (stock inventory.VaccineStock, err error) {
	defer e.observe("add_doses", time.Now(), &err)

	if err := identity.Require(who, identity.RoleCaregiver); err != nil {
		return inventory.VaccineStock{}, err
	}

	err = e.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		stock, err = inventory.NewLedger(tx.Vaccines()).Increase(ctx, vaccine, count)
		return err
	})
	if err != nil {
		return inventory.VaccineStock{}, err
	}

	e.recordEvent(ctx, appointment.EventDosesAdded, nil, map[string]any{
		"caregiver": who.Username,
		"vaccine":   stock.Name,
		"added":     count,
		"available": stock.AvailableDoses,
	})
	return stock, nil
}

// SearchSchedule lists caregivers open on date and the current dose counts.
func (e *Engine) SearchSchedule(ctx context.Context, who identity.Identity, date string) (sched Schedule, err error) {
	defer e.observe("search_schedule", time.Now(), &err)

	if err := identity.Require(who); err != nil {
		return Schedule{}, err
	}
	day, err := availability.ParseDate(date)
	if err != nil {
		return Schedule{}, err
	}

	err = e.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		caregivers, err := availability.NewRegistry(tx.Slots()).ListAvailable(ctx, day)
		if err != nil {
			return err
		}
		doses, err := inventory.NewLedger(tx.Vaccines()).Snapshot(ctx)
		if err != nil {
			return err
		}
		sched = Schedule{Date: day, Caregivers: caregivers, Doses: doses}
		return nil
	})
	if err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

// ListMyAppointments returns the caller's appointments ordered by id.
func (e *Engine) ListMyAppointments(ctx context.Context, who identity.Identity) (list []appointment.Appointment, err error) {
	defer e.observe("list_appointments", time.Now(), &err)

	if err := identity.Require(who); err != nil {
		return nil, err
	}

	err = e.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		list, err = appointment.NewStore(tx.Appointments()).ListFor(ctx, who.Username, who.Role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// PruneAvailability removes open slots dated before the given day.
func (e *Engine) PruneAvailability(ctx context.Context, before time.Time) (removed int64, err error) {
	defer e.observe("prune_availability", time.Now(), &err)

	err = e.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		removed, err = availability.NewRegistry(tx.Slots()).PruneBefore(ctx, before)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.metrics.Pruned(removed)
	return removed, nil
}

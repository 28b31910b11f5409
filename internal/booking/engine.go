package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
	"github.com/hackgods/vaccine-scheduling/internal/inventory"
	"github.com/hackgods/vaccine-scheduling/internal/metrics"
	redisclient "github.com/hackgods/vaccine-scheduling/internal/redis"
)

// Engine turns reservation and cancellation requests into committed changes
// across the inventory ledger, the availability registry and the appointment store.
type Engine struct {
	uow     UnitOfWork
	locker  redisclient.Locker
	events  appointment.EventRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewEngine(uow UnitOfWork, locker redisclient.Locker, events appointment.EventRepository, m *metrics.Metrics, log zerolog.Logger) *Engine {
	return &Engine{
		uow:     uow,
		locker:  locker,
		events:  events,
		metrics: m,
		log:     log.With().Str("component", "booking").Logger(),
	}
}

// Schedule is what a user browsing a date sees.
type Schedule struct {
	Date       time.Time
	Caregivers []string
	Doses      []inventory.VaccineStock
}

// Reserve books the lexicographically first available caregiver on date and
// takes one dose of vaccine. Nothing is visible until every step succeeded.
func (e *Engine) Reserve(ctx context.Context, who identity.Identity, date, vaccine string) (booked appointment.Appointment, err error) {
	defer e.observe("reserve", time.Now(), &err)

	if err := identity.Require(who, identity.RolePatient); err != nil {
		return appointment.Appointment{}, err
	}
	day, err := availability.ParseDate(date)
	if err != nil {
		return appointment.Appointment{}, err
	}
	vaccine = strings.TrimSpace(vaccine)
	if vaccine == "" {
		return appointment.Appointment{}, apperr.New(apperr.InvalidArgument, "vaccine name is required")
	}

	// one reservation per date at a time, so concurrent patients do not all
	// pick the same first caregiver and abort on consume
	err = e.locker.WithLock(ctx, "reserve:"+day.Format(availability.DateLayout), func(ctx context.Context) error {
		return e.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
			registry := availability.NewRegistry(tx.Slots())
			ledger := inventory.NewLedger(tx.Vaccines())
			store := appointment.NewStore(tx.Appointments())

			caregivers, err := registry.ListAvailable(ctx, day)
			if err != nil {
				return err
			}
			if len(caregivers) == 0 {
				return apperr.New(apperr.NoCaregiverAvailable, "no caregiver is available")
			}
			caregiver := caregivers[0]

			if _, err := ledger.Decrease(ctx, vaccine, 1); err != nil {
				return err
			}

			id, err := store.NextID(ctx)
			if err != nil {
				return err
			}
			appt := appointment.Appointment{
				ID:        id,
				Caregiver: caregiver,
				Patient:   who.Username,
				Vaccine:   vaccine,
				Date:      day,
			}
			if err := store.Create(ctx, appt); err != nil {
				return err
			}
			if err := registry.Consume(ctx, day, caregiver); err != nil {
				return err
			}

			booked = appt
			return nil
		})
	})
	if err != nil {
		return appointment.Appointment{}, e.lockError(err)
	}

	e.recordEvent(ctx, appointment.EventAppointmentReserved, &booked.ID, map[string]any{
		"caregiver": booked.Caregiver,
		"patient":   booked.Patient,
		"vaccine":   booked.Vaccine,
		"date":      booked.Date.Format(availability.DateLayout),
	})
	e.log.Info().
		Int64("appointment_id", booked.ID).
		Str("caregiver", booked.Caregiver).
		Str("patient", booked.Patient).
		Str("vaccine", booked.Vaccine).
		Msg("appointment reserved")

	return booked, nil
}

// Cancel removes an appointment owned by who and gives back its dose and slot.
func (e *Engine) Cancel(ctx context.Context, who identity.Identity, id int64) (cancelled appointment.Appointment, err error) {
	defer e.observe("cancel", time.Now(), &err)

	if err := identity.Require(who); err != nil {
		return appointment.Appointment{}, err
	}
	if id <= 0 {
		return appointment.Appointment{}, apperr.New(apperr.InvalidArgument, "please enter a valid appointment id")
	}

	err = e.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		store := appointment.NewStore(tx.Appointments())

		appt, err := store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.New(apperr.NotFound, "this appointment doesn't exist")
			}
			return err
		}
		if !appt.Involves(who) {
			return apperr.New(apperr.Forbidden, "you don't have access to cancel this appointment")
		}

		if err := store.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := inventory.NewLedger(tx.Vaccines()).Increase(ctx, appt.Vaccine, 1); err != nil {
			return integrityError(fmt.Sprintf("restore dose for appointment %d", id), err)
		}
		if err := availability.NewRegistry(tx.Slots()).Restore(ctx, appt.Date, appt.Caregiver); err != nil {
			return integrityError(fmt.Sprintf("restore slot for appointment %d", id), err)
		}

		cancelled = appt
		return nil
	})
	if err != nil {
		return appointment.Appointment{}, err
	}

	e.recordEvent(ctx, appointment.EventAppointmentCancelled, &cancelled.ID, map[string]any{
		"caregiver":    cancelled.Caregiver,
		"patient":      cancelled.Patient,
		"vaccine":      cancelled.Vaccine,
		"date":         cancelled.Date.Format(availability.DateLayout),
		"cancelled_by": who.String(),
	})

	return cancelled, nil
}

// integrityError marks a failure after the appointment was already removed.
func integrityError(step string, err error) error {
	if errors.Is(err, apperr.ErrDataIntegrity) {
		return err
	}
	return apperr.Wrap(apperr.DataIntegrity, step, err)
}

func (e *Engine) lockError(err error) error {
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return apperr.Wrap(apperr.StoreUnavailable, "reservations for this date are busy, please retry", err)
	}
	return typed(err)
}

// typed makes sure nothing untyped escapes the engine.
func typed(err error) error {
	var appErr *apperr.Error
	if err == nil || errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.StoreUnavailable, "operation timed out", err)
	}
	return apperr.Wrap(apperr.Internal, "internal error", err)
}

func (e *Engine) observe(operation string, start time.Time, err *error) {
	*err = typed(*err)
	e.metrics.Observe(operation, start, *err)
	if *err != nil && apperr.KindOf(*err) == apperr.DataIntegrity {
		e.log.Error().Err(*err).Str("operation", operation).Msg("data integrity error")
	}
}

func (e *Engine) recordEvent(ctx context.Context, eventType string, appointmentID *int64, payload map[string]any) {
	if e.events == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		e.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	ev := appointment.EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := e.events.InsertEvent(ctx, ev); err != nil {
		e.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to insert event log")
	}
}

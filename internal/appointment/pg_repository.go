package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
	"github.com/hackgods/vaccine-scheduling/internal/db"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

type PgRepository struct {
	conn db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{conn: conn}
}

// Helpers

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.Caregiver,
		&a.Patient,
		&a.Vaccine,
		&a.Date,
	)
	if err != nil {
		return Appointment{}, err
	}

	return a, nil
}

// Interface methods

// NextID bumps the counter row. The UPDATE row lock serializes concurrent
// allocations until the surrounding transaction ends, and GREATEST keeps ids
// above any row inserted without the counter.
func (r *PgRepository) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.conn.QueryRow(ctx, `
		UPDATE appointment_counter
		SET last_id = GREATEST(last_id, (SELECT COALESCE(MAX(appointment_id), 0) FROM appointments)) + 1
		WHERE id = 1
		RETURNING last_id
	`).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err, "appointment counter")
	}
	return id, nil
}

func (r *PgRepository) Create(ctx context.Context, a Appointment) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO appointments (appointment_id, caregiver, patient, vaccine, time)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Caregiver, a.Patient, a.Vaccine, a.Date)
	if err != nil {
		return db.TranslateError(err, "appointment")
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM appointments
		WHERE appointment_id = $1
	`, id)
	if err != nil {
		return db.TranslateError(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "appointment %d doesn't exist", id)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id int64) (Appointment, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT appointment_id, caregiver, patient, vaccine, time
		FROM appointments
		WHERE appointment_id = $1
	`, id)

	a, err := scanAppointment(row)
	if err != nil {
		return Appointment{}, db.TranslateError(err, fmt.Sprintf("appointment %d", id))
	}
	return a, nil
}

func (r *PgRepository) ListFor(ctx context.Context, username string, role identity.Role) ([]Appointment, error) {
	column := "patient"
	if role == identity.RoleCaregiver {
		column = "caregiver"
	}

	rows, err := r.conn.Query(ctx, `
		SELECT appointment_id, caregiver, patient, vaccine, time
		FROM appointments
		WHERE `+column+` = $1
		ORDER BY appointment_id
	`, username)
	if err != nil {
		return nil, db.TranslateError(err, "appointments")
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, db.TranslateError(err, "appointments")
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, db.TranslateError(err, "appointments")
	}

	return result, nil
}

func (r *PgRepository) CaregiverBooked(ctx context.Context, caregiver string, date time.Time) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE caregiver = $1 AND time = $2
		)
	`, caregiver, date).Scan(&exists)
	if err != nil {
		return false, db.TranslateError(err, "appointments")
	}
	return exists, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", db.TranslateError(err, "event log"))
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package appointment

import (
	"context"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

// Repository contains all appointment persistence needed by the booking engine.
type Repository interface {
	// NextID returns an id greater than every id ever handed out.
	NextID(ctx context.Context) (int64, error)

	Create(ctx context.Context, a Appointment) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Appointment, error)

	// ListFor returns the user's appointments ordered by id.
	ListFor(ctx context.Context, username string, role identity.Role) ([]Appointment, error)

	// CaregiverBooked reports whether caregiver already has an appointment on date.
	CaregiverBooked(ctx context.Context, caregiver string, date time.Time) (bool, error)
}

// EventRepository stores the append-only event log.
type EventRepository interface {
	InsertEvent(ctx context.Context, ev EventLog) error
}

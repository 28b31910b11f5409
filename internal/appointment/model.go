package appointment

import (
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

const (
	EventAppointmentReserved  = "APPOINTMENT_RESERVED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAvailabilityUploaded = "AVAILABILITY_PUBLISHED"
	EventDosesAdded           = "DOSES_ADDED"
)

// Appointment is immutable once created. Cancel and rebook to change one.
type Appointment struct {
	ID        int64
	Caregiver string
	Patient   string
	Vaccine   string
	Date      time.Time
}

// Involves reports whether id is the patient or the caregiver on a.
func (a Appointment) Involves(id identity.Identity) bool {
	switch id.Role {
	case identity.RolePatient:
		return a.Patient == id.Username
	case identity.RoleCaregiver:
		return a.Caregiver == id.Username
	}
	return false
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}

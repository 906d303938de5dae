package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Outcome is the single-shot result of validating a booking request.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeDoctorNotFound
	OutcomeSlotUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeDoctorNotFound:
		return "doctor_not_found"
	case OutcomeSlotUnavailable:
		return "slot_unavailable"
	default:
		return "unknown"
	}
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	// Slots holds the doctor-configured availability strings exactly as
	// entered, e.g. "09:00-10:00" or "9:00 AM, 10:00 AM".
	Slots     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	AppointmentTime time.Time
	Status          AppointmentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

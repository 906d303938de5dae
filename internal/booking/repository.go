package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned by the insert path when the unique index
	// on (doctor_id, appointment_time) rejects the row. It is the last
	// line of defense: two requests can both pass validation, only one
	// survives the write.
	ErrSlotTaken = errors.New("appointment time already taken for this doctor")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// GetAppointmentsForDoctorOnDate returns every appointment, any
	// status, whose time falls on the calendar day of date.
	GetAppointmentsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	// ExistsConflictingAppointment reports whether a non-cancelled
	// appointment already occupies the exact timestamp for the doctor.
	// excludingID, when non-nil, ignores that appointment's own row so
	// an update-in-place does not conflict with itself.
	ExistsConflictingAppointment(ctx context.Context, doctorID uuid.UUID, at time.Time, excludingID *uuid.UUID) (bool, error)

	CreateScheduledAppointment(ctx context.Context, doctorID, patientID uuid.UUID, at time.Time) (*Appointment, error)
	UpdateAppointmentTime(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Completion worker
	FindPastScheduled(ctx context.Context, before time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

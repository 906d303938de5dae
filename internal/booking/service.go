package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/config"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/slot"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
)

var (
	ErrSlotUnavailable         = errors.New("requested time is not an open slot for this doctor")
	ErrBookingInProgress       = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
)

type Service struct {
	repo   Repository
	locker redisclient.BookingLocker
	cfg    config.Config
	log    *zap.Logger

	// now is swapped out in tests; the same-day cutoff depends on it.
	now func() time.Time
}

func NewService(repo Repository, locker redisclient.BookingLocker, cfg config.Config, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// ComputeAvailability returns the doctor's open slots for date as
// ordered display strings, preserving the doctor's own formatting.
func (s *Service) ComputeAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	doc, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	booked, err := s.bookedTimes(ctx, doctorID, date, nil)
	if err != nil {
		return nil, err
	}

	open := slot.Compute(doc.Slots, booked, date, s.now())

	out := make([]string, len(open))
	for i, sl := range open {
		out[i] = sl.Source
	}
	return out, nil
}

// ValidateBooking decides whether an appointment may be created (or
// moved) at the requested time. The outcome is advisory: the insert
// still runs under the booking lock and the unique index so concurrent
// winners cannot double-book.
func (s *Service) ValidateBooking(ctx context.Context, doctorID uuid.UUID, at time.Time, excludingID *uuid.UUID) (Outcome, error) {
	doc, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return OutcomeDoctorNotFound, nil
		}
		return OutcomeSlotUnavailable, fmt.Errorf("load doctor: %w", err)
	}

	requested := at.Format("15:04")

	booked, err := s.bookedTimes(ctx, doctorID, at, excludingID)
	if err != nil {
		return OutcomeSlotUnavailable, err
	}

	open := slot.Compute(doc.Slots, booked, dayOf(at), s.now())

	match := false
	for _, sl := range open {
		if sl.Start == requested {
			match = true
			break
		}
	}
	if !match {
		// The computed list can hide a legitimate slot, e.g. when the
		// configured text uses a format whose canonical time collides
		// with the default grid path. A direct match against the
		// configured specs settles it.
		match = matchesConfigured(doc.Slots, requested)
	}
	if !match {
		return OutcomeSlotUnavailable, nil
	}

	conflict, err := s.repo.ExistsConflictingAppointment(ctx, doctorID, at, excludingID)
	if err != nil {
		return OutcomeSlotUnavailable, fmt.Errorf("check conflicting appointment: %w", err)
	}
	if conflict {
		return OutcomeSlotUnavailable, nil
	}

	return OutcomeValid, nil
}

// BookAppointment validates and persists a new appointment. A per
// doctor-and-time Redis lock narrows the validate-then-insert window;
// the partial unique index in Postgres makes the invariant hold even
// if two requests slip past the lock.
func (s *Service) BookAppointment(ctx context.Context, doctorID, patientID uuid.UUID, at time.Time) (*Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	var created *Appointment

	err := s.locker.WithBookingLock(ctx, doctorID, at, func(lockCtx context.Context) error {
		outcome, err := s.ValidateBooking(lockCtx, doctorID, at, nil)
		if err != nil {
			return err
		}
		switch outcome {
		case OutcomeDoctorNotFound:
			return ErrDoctorNotFound
		case OutcomeSlotUnavailable:
			return ErrSlotUnavailable
		}

		appt, err := s.repo.CreateScheduledAppointment(lockCtx, doctorID, patientID, at)
		if err != nil {
			return err
		}
		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"doctor_id":        doctorID.String(),
			"patient_id":       patientID.String(),
			"appointment_time": at,
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.log.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("doctor_id", doctorID.String()),
		zap.Time("appointment_time", at),
	)

	return created, nil
}

// RescheduleAppointment moves a scheduled appointment to a new time,
// validating the target slot while ignoring the appointment's own row.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	var updated *Appointment

	err = s.locker.WithBookingLock(ctx, appt.DoctorID, at, func(lockCtx context.Context) error {
		outcome, err := s.ValidateBooking(lockCtx, appt.DoctorID, at, &appt.ID)
		if err != nil {
			return err
		}
		switch outcome {
		case OutcomeDoctorNotFound:
			return ErrDoctorNotFound
		case OutcomeSlotUnavailable:
			return ErrSlotUnavailable
		}

		moved, err := s.repo.UpdateAppointmentTime(lockCtx, appt.ID, at)
		if err != nil {
			return err
		}
		updated = moved

		s.logEvent(lockCtx, appt.ID, EventAppointmentRescheduled, map[string]any{
			"from": appt.AppointmentTime,
			"to":   at,
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	return updated, nil
}

// CancelAppointment frees the slot. Cancelling is a compare-and-swap
// on status so a concurrent completion cannot be overwritten.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, s.transitionError(ctx, id)
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentCancelled, map[string]any{})
	return appt, nil
}

// CompleteAppointment marks a scheduled appointment as completed.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, s.transitionError(ctx, id)
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentCompleted, map[string]any{})
	return appt, nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// CompletePastAppointments is called periodically by the worker. It
// marks scheduled appointments whose time passed the grace period as
// completed.
func (s *Service) CompletePastAppointments(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.CompletionGrace)

	past, err := s.repo.FindPastScheduled(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find past scheduled appointments: %w", err)
	}

	for _, appt := range past {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusScheduled, StatusCompleted)
		if err != nil {
			// A miss means the appointment left the scheduled state
			// between the find and the update, usually a concurrent
			// cancellation. No completion happened, so no event.
			if !errors.Is(err, ErrAppointmentNotFound) {
				s.log.Warn("failed to complete appointment",
					zap.String("appointment_id", appt.ID.String()),
					zap.Error(err),
				)
			}
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentCompleted, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// bookedTimes builds the occupied start times for the doctor on the
// calendar day of date. Cancelled appointments free their slot, and
// excludingID leaves the appointment being moved out of the set.
func (s *Service) bookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time, excludingID *uuid.UUID) ([]time.Time, error) {
	appts, err := s.repo.GetAppointmentsForDoctorOnDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	booked := make([]time.Time, 0, len(appts))
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		if excludingID != nil && a.ID == *excludingID {
			continue
		}
		booked = append(booked, a.AppointmentTime)
	}
	return booked, nil
}

// transitionError distinguishes "no such appointment" from "exists but
// not in the expected status" after a failed compare-and-swap update.
func (s *Service) transitionError(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetAppointmentByID(ctx, id); err != nil {
		return err
	}
	return ErrInvalidStatusTransition
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}

func matchesConfigured(specs []string, canonical string) bool {
	for _, spec := range specs {
		for _, token := range slot.Split(spec) {
			if sl, err := slot.Normalize(token); err == nil && sl.Start == canonical {
				return true
			}
		}
	}
	return false
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

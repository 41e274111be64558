package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
)

// SchedulingTx is the transaction-scoped surface the postgres repository composes
// its use cases from. Every method runs inside a single datastore transaction.
type SchedulingTx interface {
	GetDay(ctx context.Context, date time.Time) (domain.CalendarDay, error)
	UpsertDay(ctx context.Context, day domain.CalendarDay) (domain.CalendarDay, error)

	InsertSlots(ctx context.Context, slots []domain.TimeSlot) ([]domain.TimeSlot, error)
	DeleteSlotsForDay(ctx context.Context, date time.Time) error
	CountBookedSlots(ctx context.Context, date time.Time) (int, error)
	GetSlot(ctx context.Context, slotID uuid.UUID) (domain.TimeSlot, error)

	// ReserveSlot is the exclusivity-critical operation: a conditional update
	// guarded by the prior status, so at most one concurrent caller wins.
	ReserveSlot(ctx context.Context, slotID uuid.UUID) error
	// ReleaseSlot is an idempotent no-op when the slot is already available.
	ReleaseSlot(ctx context.Context, slotID uuid.UUID) error

	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	GetUserAppointment(ctx context.Context, appointmentID uuid.UUID, userID string) (domain.Appointment, error)
	// SetAppointmentStatus is conditional on the prior status, so a transition
	// validated against a stale read cannot overwrite a concurrent change.
	SetAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, from, to domain.AppointmentStatus) (domain.Appointment, error)
}

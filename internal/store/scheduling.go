package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
)

// AppointmentFilter narrows admin appointment listings. SearchTerm matches
// case-insensitively against requester name, email and phone number.
type AppointmentFilter struct {
	SearchTerm string
	Status     domain.AppointmentStatus
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

type SchedulingRepository interface {
	// Calendar overrides. SetOffDay upserts the day's record and leaves existing
	// slots untouched: the flag blocks new generation and booking only.
	SetOffDay(ctx context.Context, date time.Time, isOffDay bool, description string) (domain.CalendarDay, error)
	GetCalendarDay(ctx context.Context, date time.Time) (domain.CalendarDay, error)
	ListOffDays(ctx context.Context, from, to time.Time) ([]time.Time, error)

	// Slot ledger. ReplaceSlotsForDay refuses closed days and days holding booked
	// slots. UpdateSlotTimes and DeleteSlot refuse booked slots.
	ReplaceSlotsForDay(ctx context.Context, date time.Time, slots []domain.TimeSlot) ([]domain.TimeSlot, error)
	AvailableSlots(ctx context.Context, date time.Time) ([]domain.TimeSlot, error)
	GetSlot(ctx context.Context, slotID uuid.UUID) (domain.TimeSlot, error)
	UpdateSlotTimes(ctx context.Context, slotID uuid.UUID, newStart, newEnd time.Time) (domain.TimeSlot, error)
	DeleteSlot(ctx context.Context, slotID uuid.UUID) error

	// Booking and lifecycle. Book atomically reserves appt.SlotID and inserts the
	// appointment; both commit or neither does. UpdateAppointmentStatus releases
	// the slot in the same transaction when the target status is cancelled.
	// CancelUserAppointment reports ErrNotFound when the appointment does not
	// belong to userID.
	Book(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)
	CancelUserAppointment(ctx context.Context, appointmentID uuid.UUID, userID string) (domain.Appointment, error)
	MarkAppointmentPaid(ctx context.Context, appointmentID uuid.UUID, paymentRef string) error
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	ListUserAppointments(ctx context.Context, userID string, limit, offset int) ([]domain.Appointment, int, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, int, error)
}

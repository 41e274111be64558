package scheduling

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Charger captures a payment for a booked appointment. Capture failures never
// roll a booking back; payment and booking are deliberately decoupled.
type Charger interface {
	Charge(ctx context.Context, in ChargeInput) (string, error)
}

type ChargeInput struct {
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	Description     string
}

// Publisher emits appointment lifecycle events. Best effort: a publish failure
// is logged and otherwise ignored.
type Publisher interface {
	Publish(ctx context.Context, event AppointmentEvent) error
}

type AppointmentEvent struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	SlotID        string    `json:"slot_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventAppointmentBooked        = "appointment.booked"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventAppointmentCancelled     = "appointment.cancelled"
)

// AvailabilityCache fronts the availability read path. Staleness is tolerated:
// a stale hit only makes a later reservation attempt fail cleanly.
type AvailabilityCache interface {
	GetSlots(ctx context.Context, date time.Time) ([]domain.TimeSlot, bool)
	SetSlots(ctx context.Context, date time.Time, slots []domain.TimeSlot)
	Invalidate(ctx context.Context, date time.Time)
}

type Deps struct {
	Charger   Charger
	Publisher Publisher
	Cache     AvailabilityCache
	Logger    *slog.Logger
	Now       func() time.Time
}

type Service struct {
	repo      store.SchedulingRepository
	charger   Charger
	publisher Publisher
	cache     AvailabilityCache
	log       *slog.Logger
	now       func() time.Time
}

func NewService(repo store.SchedulingRepository, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		charger:   deps.Charger,
		publisher: deps.Publisher,
		cache:     deps.Cache,
		log:       log.With(slog.String("component", "service.scheduling")),
		now:       now,
	}
}

func (s *Service) SetOffDay(ctx context.Context, date time.Time, isOffDay bool, description string) (domain.CalendarDay, error) {
	if date.IsZero() {
		return domain.CalendarDay{}, validationError("date is required")
	}
	day, err := s.repo.SetOffDay(ctx, date, isOffDay, strings.TrimSpace(description))
	if err != nil {
		return domain.CalendarDay{}, err
	}
	s.invalidate(ctx, day.Date)
	return day, nil
}

type CreateSlotsInput struct {
	Date         time.Time
	StartTime    string
	EndTime      string
	SlotDuration int
	BreakTime    int
}

// CreateSlotsForDay generates the day's slots and replaces whatever unbooked
// slots the day already holds. When no window is supplied the fixed default
// grid is used.
func (s *Service) CreateSlotsForDay(ctx context.Context, in CreateSlotsInput) ([]domain.TimeSlot, error) {
	if in.Date.IsZero() {
		return nil, validationError("date is required")
	}

	var slots []domain.TimeSlot
	if in.StartTime == "" && in.EndTime == "" {
		slots = domain.DefaultDaySlots(in.Date)
	} else {
		var err error
		slots, err = domain.GenerateSlots(in.Date, in.StartTime, in.EndTime, in.SlotDuration, in.BreakTime)
		if err != nil {
			return nil, validationError(err.Error())
		}
	}

	out, err := s.repo.ReplaceSlotsForDay(ctx, in.Date, slots)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, in.Date)
	return out, nil
}

func (s *Service) AvailableSlots(ctx context.Context, date time.Time) ([]domain.TimeSlot, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	if s.cache != nil {
		if slots, ok := s.cache.GetSlots(ctx, date); ok {
			return slots, nil
		}
	}
	slots, err := s.repo.AvailableSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetSlots(ctx, date, slots)
	}
	return slots, nil
}

const maxAvailableDaysWindow = 90

// AvailableDays returns the next windowDays calendar dates from the injected
// clock, today included, minus closed dates. The result is a snapshot; callers
// must not assume it is stable across calls.
func (s *Service) AvailableDays(ctx context.Context, windowDays int) ([]time.Time, error) {
	if windowDays < 1 {
		return nil, validationError("days must be at least 1")
	}
	if windowDays > maxAvailableDaysWindow {
		return nil, validationError("days must be at most 90")
	}

	start := domain.DateOf(s.now())
	end := start.AddDate(0, 0, windowDays)
	offDays, err := s.repo.ListOffDays(ctx, start, end)
	if err != nil {
		return nil, err
	}
	closed := make(map[time.Time]struct{}, len(offDays))
	for _, d := range offDays {
		closed[d] = struct{}{}
	}

	out := make([]time.Time, 0, windowDays)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if _, ok := closed[d]; ok {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

type BookInput struct {
	SlotID          uuid.UUID
	UserID          string
	FirstName       string
	LastName        string
	Email           string
	PhoneNumber     string
	DateOfBirth     *time.Time
	Address         string
	Notes           string
	ConsultationFee int64
	PaymentMethodID string
}

// Book atomically reserves the slot and creates the pending appointment, then
// attempts payment capture when a payment method was supplied. The booking
// stands even if capture fails.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	if in.SlotID == uuid.Nil {
		return domain.Appointment{}, validationError("slot_id is required")
	}
	if in.UserID == "" {
		return domain.Appointment{}, validationError("user_id is required")
	}
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.PhoneNumber)
	if firstName == "" {
		return domain.Appointment{}, validationError("first_name is required")
	}
	if lastName == "" {
		return domain.Appointment{}, validationError("last_name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return domain.Appointment{}, validationError("valid email is required")
	}
	if phone == "" {
		return domain.Appointment{}, validationError("phone_number is required")
	}
	if in.ConsultationFee < 0 {
		return domain.Appointment{}, validationError("consultation_fee must not be negative")
	}

	appt, err := s.repo.Book(ctx, domain.Appointment{
		SlotID:          in.SlotID,
		UserID:          in.UserID,
		FirstName:       firstName,
		LastName:        lastName,
		Email:           email,
		PhoneNumber:     phone,
		DateOfBirth:     in.DateOfBirth,
		Address:         strings.TrimSpace(in.Address),
		Notes:           in.Notes,
		ConsultationFee: in.ConsultationFee,
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.invalidate(ctx, appt.AppointmentDate)
	s.capturePayment(ctx, &appt, in.PaymentMethodID)
	s.publish(ctx, EventAppointmentBooked, appt)
	return appt, nil
}

func (s *Service) capturePayment(ctx context.Context, appt *domain.Appointment, paymentMethodID string) {
	if s.charger == nil || paymentMethodID == "" || appt.ConsultationFee <= 0 {
		return
	}

	ref, err := s.charger.Charge(ctx, ChargeInput{
		AmountCents:     appt.ConsultationFee,
		Currency:        "eur",
		PaymentMethodID: paymentMethodID,
		Description:     "Consultation fee for appointment " + appt.ID.String(),
	})
	if err != nil {
		s.log.Warn(
			"payment capture failed; booking kept",
			slog.String("appointment_id", appt.ID.String()),
			slog.Any("err", err),
		)
		return
	}
	if err := s.repo.MarkAppointmentPaid(ctx, appt.ID, ref); err != nil {
		s.log.Error(
			"appointment paid flag update failed",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("payment_ref", ref),
			slog.Any("err", err),
		)
		return
	}
	appt.IsPaid = true
	appt.PaymentRef = ref
}

func (s *Service) SetAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if !status.Valid() || status == domain.AppointmentStatusPending {
		return domain.Appointment{}, validationError("invalid status")
	}

	appt, err := s.repo.UpdateAppointmentStatus(ctx, appointmentID, status)
	if err != nil {
		return domain.Appointment{}, err
	}
	if status == domain.AppointmentStatusCancelled {
		s.invalidate(ctx, appt.AppointmentDate)
	}
	s.publish(ctx, EventAppointmentStatusChanged, appt)
	return appt, nil
}

// Cancel is the requester-initiated cancellation. Ownership mismatches surface
// as not-found so existence is never leaked across requesters.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID, userID string) (domain.Appointment, error) {
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if userID == "" {
		return domain.Appointment{}, validationError("user_id is required")
	}

	appt, err := s.repo.CancelUserAppointment(ctx, appointmentID, userID)
	if err != nil {
		return domain.Appointment{}, err
	}
	s.invalidate(ctx, appt.AppointmentDate)
	s.publish(ctx, EventAppointmentCancelled, appt)
	return appt, nil
}

func (s *Service) ListUserAppointments(ctx context.Context, userID string, limit, offset int) ([]domain.Appointment, int, error) {
	if userID == "" {
		return nil, 0, validationError("user_id is required")
	}
	return s.repo.ListUserAppointments(ctx, userID, normalizeLimit(limit), normalizeOffset(offset))
}

type ListAppointmentsInput struct {
	SearchTerm string
	Status     domain.AppointmentStatus
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

func (s *Service) ListAppointments(ctx context.Context, in ListAppointmentsInput) ([]domain.Appointment, int, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, 0, validationError("invalid status filter")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, 0, validationError("end_date must not be before start_date")
	}
	return s.repo.ListAppointments(ctx, store.AppointmentFilter{
		SearchTerm: strings.TrimSpace(in.SearchTerm),
		Status:     in.Status,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Limit:      normalizeLimit(in.Limit),
		Offset:     normalizeOffset(in.Offset),
	})
}

// UpdateSlot rewrites a non-booked slot's window on its own day.
func (s *Service) UpdateSlot(ctx context.Context, slotID uuid.UUID, startTime, endTime string) (domain.TimeSlot, error) {
	if slotID == uuid.Nil {
		return domain.TimeSlot{}, validationError("slot_id is required")
	}

	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return domain.TimeSlot{}, err
	}

	newStart, err := domain.AtTimeOfDay(slot.Day, startTime)
	if err != nil {
		return domain.TimeSlot{}, validationError("invalid start_time")
	}
	newEnd, err := domain.AtTimeOfDay(slot.Day, endTime)
	if err != nil {
		return domain.TimeSlot{}, validationError("invalid end_time")
	}
	if !newEnd.After(newStart) {
		return domain.TimeSlot{}, validationError("end_time must be after start_time")
	}
	minutes := int(newEnd.Sub(newStart) / time.Minute)
	if minutes < domain.MinSlotDurationMinutes || minutes > domain.MaxSlotDurationMinutes {
		return domain.TimeSlot{}, validationError("slot length out of range")
	}

	updated, err := s.repo.UpdateSlotTimes(ctx, slotID, newStart, newEnd)
	if err != nil {
		return domain.TimeSlot{}, err
	}
	s.invalidate(ctx, updated.Day)
	return updated, nil
}

func (s *Service) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	if slotID == uuid.Nil {
		return validationError("slot_id is required")
	}
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return err
	}
	s.invalidate(ctx, slot.Day)
	return nil
}

func (s *Service) invalidate(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, date)
}

func (s *Service) publish(ctx context.Context, eventType string, appt domain.Appointment) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, AppointmentEvent{
		Type:          eventType,
		AppointmentID: appt.ID.String(),
		SlotID:        appt.SlotID.String(),
		UserID:        appt.UserID,
		Status:        string(appt.Status),
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		s.log.Warn(
			"event publish failed",
			slog.String("event", eventType),
			slog.String("appointment_id", appt.ID.String()),
			slog.Any("err", err),
		)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
)

type SchedulingRepo struct {
	db *bun.DB
}

func NewSchedulingRepo(db *bun.DB) *SchedulingRepo {
	return &SchedulingRepo{db: db}
}

type schedulingTx struct {
	tx bun.Tx
}

// InDayTransaction runs fn inside a transaction holding an advisory lock on the
// given date. Bulk slot replacement and booking on the same day serialize through
// this lock; bookings on different days proceed independently.
func (r *SchedulingRepo) InDayTransaction(ctx context.Context, date time.Time, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDay(ctx, tx, date); err != nil {
			return err
		}
		return fn(ctx, schedulingTx{tx: tx})
	})
}

func lockDay(ctx context.Context, tx bun.Tx, date time.Time) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", domain.DateOf(date).Format("2006-01-02")).Exec(ctx)
	return err
}

func (r *SchedulingRepo) SetOffDay(ctx context.Context, date time.Time, isOffDay bool, description string) (domain.CalendarDay, error) {
	var out domain.CalendarDay
	err := r.InDayTransaction(ctx, date, func(ctx context.Context, tx store.SchedulingTx) error {
		day, err := tx.UpsertDay(ctx, domain.CalendarDay{
			Date:        domain.DateOf(date),
			IsOffDay:    isOffDay,
			Description: description,
		})
		if err != nil {
			return err
		}
		out = day
		return nil
	})
	if err != nil {
		return domain.CalendarDay{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) GetCalendarDay(ctx context.Context, date time.Time) (domain.CalendarDay, error) {
	var day domain.CalendarDay
	err := r.db.NewSelect().
		Model(&day).
		Where("date = ?", domain.DateOf(date)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CalendarDay{}, store.ErrNotFound
		}
		return domain.CalendarDay{}, err
	}
	return day, nil
}

func (r *SchedulingRepo) ListOffDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var rows []domain.CalendarDay
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_off_day = TRUE").
		Where("date >= ?", domain.DateOf(from)).
		Where("date < ?", domain.DateOf(to)).
		OrderExpr("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(rows))
	for _, d := range rows {
		out = append(out, domain.DateOf(d.Date))
	}
	return out, nil
}

// ReplaceSlotsForDay refuses closed days and refuses to drop booked slots so a
// regeneration can never orphan an existing appointment.
func (r *SchedulingRepo) ReplaceSlotsForDay(ctx context.Context, date time.Time, slots []domain.TimeSlot) ([]domain.TimeSlot, error) {
	var out []domain.TimeSlot
	err := r.InDayTransaction(ctx, date, func(ctx context.Context, tx store.SchedulingTx) error {
		day, err := tx.GetDay(ctx, date)
		switch {
		case err == nil:
			if day.IsOffDay {
				return store.ErrDayClosed
			}
		case errors.Is(err, store.ErrNotFound):
			if _, err := tx.UpsertDay(ctx, domain.CalendarDay{Date: domain.DateOf(date)}); err != nil {
				return err
			}
		default:
			return err
		}

		booked, err := tx.CountBookedSlots(ctx, date)
		if err != nil {
			return err
		}
		if booked > 0 {
			return store.ErrSlotBooked
		}

		if err := tx.DeleteSlotsForDay(ctx, date); err != nil {
			return err
		}
		inserted, err := tx.InsertSlots(ctx, slots)
		if err != nil {
			return err
		}
		out = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SchedulingRepo) AvailableSlots(ctx context.Context, date time.Time) ([]domain.TimeSlot, error) {
	day, err := r.GetCalendarDay(ctx, date)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err == nil && day.IsOffDay {
		return []domain.TimeSlot{}, nil
	}

	rows := make([]domain.TimeSlot, 0, 16)
	err = r.db.NewSelect().
		Model(&rows).
		Where("day = ?", domain.DateOf(date)).
		Where("status = ?", domain.SlotStatusAvailable).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) GetSlot(ctx context.Context, slotID uuid.UUID) (domain.TimeSlot, error) {
	var slot domain.TimeSlot
	err := r.db.NewSelect().
		Model(&slot).
		Where("id = ?", slotID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TimeSlot{}, store.ErrNotFound
		}
		return domain.TimeSlot{}, err
	}
	return slot, nil
}

func (r *SchedulingRepo) UpdateSlotTimes(ctx context.Context, slotID uuid.UUID, newStart, newEnd time.Time) (domain.TimeSlot, error) {
	var out domain.TimeSlot
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stx := schedulingTx{tx: tx}
		slot, err := stx.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if err := lockDay(ctx, tx, slot.Day); err != nil {
			return err
		}
		if slot.Status == domain.SlotStatusBooked {
			return store.ErrSlotBooked
		}

		overlapping, err := tx.NewSelect().
			Model((*domain.TimeSlot)(nil)).
			Where("day = ?", slot.Day).
			Where("id != ?", slotID).
			Where("start_time < ?", newEnd).
			Where("end_time > ?", newStart).
			Count(ctx)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return store.ErrSlotOverlap
		}

		slot.StartTime = newStart
		slot.EndTime = newEnd
		if _, err := tx.NewUpdate().
			Model(&slot).
			Column("start_time", "end_time", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23P01" && pgErr.ConstraintName == "time_slots_no_overlap" {
				return store.ErrSlotOverlap
			}
			return err
		}
		out = slot
		return nil
	})
	if err != nil {
		return domain.TimeSlot{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stx := schedulingTx{tx: tx}
		slot, err := stx.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Status == domain.SlotStatusBooked {
			return store.ErrSlotBooked
		}

		res, err := tx.NewDelete().
			Model((*domain.TimeSlot)(nil)).
			Where("id = ?", slotID).
			Where("status = ?", domain.SlotStatusAvailable).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrSlotBooked
		}
		return nil
	})
}

// Book reserves appt.SlotID and inserts the appointment record as one atomic unit.
func (r *SchedulingRepo) Book(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stx := schedulingTx{tx: tx}
		slot, err := stx.GetSlot(ctx, appt.SlotID)
		if err != nil {
			return err
		}
		if err := lockDay(ctx, tx, slot.Day); err != nil {
			return err
		}

		day, err := stx.GetDay(ctx, slot.Day)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err == nil && day.IsOffDay {
			return store.ErrDayClosed
		}

		if err := stx.ReserveSlot(ctx, appt.SlotID); err != nil {
			return err
		}

		appt.AppointmentDate = slot.Day
		appt.Status = domain.AppointmentStatusPending
		created, err := stx.InsertAppointment(ctx, appt)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stx := schedulingTx{tx: tx}
		appt, err := stx.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		updated, err := transitionAppointment(ctx, tx, stx, appt, status)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *SchedulingRepo) CancelUserAppointment(ctx context.Context, appointmentID uuid.UUID, userID string) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stx := schedulingTx{tx: tx}
		appt, err := stx.GetUserAppointment(ctx, appointmentID, userID)
		if err != nil {
			return err
		}
		updated, err := transitionAppointment(ctx, tx, stx, appt, domain.AppointmentStatusCancelled)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

// transitionAppointment applies the status change and, for cancellations, returns
// the reserved slot to the pool inside the same transaction.
func transitionAppointment(ctx context.Context, tx bun.Tx, stx schedulingTx, appt domain.Appointment, status domain.AppointmentStatus) (domain.Appointment, error) {
	if !appt.Status.CanTransitionTo(status) {
		return domain.Appointment{}, store.ErrInvalidTransition
	}
	if err := lockDay(ctx, tx, appt.AppointmentDate); err != nil {
		return domain.Appointment{}, err
	}

	// The pre-lock read may be stale: a concurrent transition on the same day
	// can commit between the read and the lock. Re-validate against the row as
	// it stands under the lock, and let the conditional write guard the rest.
	current, err := stx.GetAppointment(ctx, appt.ID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !current.Status.CanTransitionTo(status) {
		return domain.Appointment{}, store.ErrInvalidTransition
	}

	updated, err := stx.SetAppointmentStatus(ctx, appt.ID, current.Status, status)
	if err != nil {
		return domain.Appointment{}, err
	}
	if status == domain.AppointmentStatusCancelled {
		if err := stx.ReleaseSlot(ctx, updated.SlotID); err != nil {
			return domain.Appointment{}, err
		}
	}
	return updated, nil
}

func (r *SchedulingRepo) MarkAppointmentPaid(ctx context.Context, appointmentID uuid.UUID, paymentRef string) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("is_paid = TRUE").
		Set("payment_ref = ?", paymentRef).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", appointmentID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SchedulingRepo) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("id = ?", appointmentID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *SchedulingRepo) ListUserAppointments(ctx context.Context, userID string, limit, offset int) ([]domain.Appointment, int, error) {
	rows := make([]domain.Appointment, 0, limit)
	total, err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("appointment_date DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *SchedulingRepo) ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	rows := make([]domain.Appointment, 0, limit)
	q := r.db.NewSelect().Model(&rows)

	if filter.SearchTerm != "" {
		pattern := "%" + filter.SearchTerm + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("first_name ILIKE ?", pattern).
				WhereOr("last_name ILIKE ?", pattern).
				WhereOr("email ILIKE ?", pattern).
				WhereOr("phone_number ILIKE ?", pattern)
		})
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		q = q.Where("appointment_date >= ?", domain.DateOf(*filter.StartDate))
	}
	if filter.EndDate != nil {
		q = q.Where("appointment_date <= ?", domain.DateOf(*filter.EndDate))
	}

	total, err := q.
		OrderExpr("appointment_date DESC, created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r schedulingTx) GetDay(ctx context.Context, date time.Time) (domain.CalendarDay, error) {
	var day domain.CalendarDay
	err := r.tx.NewSelect().
		Model(&day).
		Where("date = ?", domain.DateOf(date)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CalendarDay{}, store.ErrNotFound
		}
		return domain.CalendarDay{}, err
	}
	return day, nil
}

func (r schedulingTx) UpsertDay(ctx context.Context, day domain.CalendarDay) (domain.CalendarDay, error) {
	m := domain.CalendarDay{
		Date:        domain.DateOf(day.Date),
		IsOffDay:    day.IsOffDay,
		Description: day.Description,
	}
	_, err := r.tx.NewInsert().
		Model(&m).
		On("CONFLICT (date) DO UPDATE").
		Set("is_off_day = EXCLUDED.is_off_day").
		Set("description = EXCLUDED.description").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.CalendarDay{}, err
	}
	return m, nil
}

func (r schedulingTx) InsertSlots(ctx context.Context, slots []domain.TimeSlot) ([]domain.TimeSlot, error) {
	if len(slots) == 0 {
		return []domain.TimeSlot{}, nil
	}
	rows := make([]domain.TimeSlot, len(slots))
	copy(rows, slots)
	_, err := r.tx.NewInsert().Model(&rows).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" && pgErr.ConstraintName == "time_slots_no_overlap" {
			return nil, store.ErrSlotOverlap
		}
		return nil, err
	}
	return rows, nil
}

func (r schedulingTx) DeleteSlotsForDay(ctx context.Context, date time.Time) error {
	_, err := r.tx.NewDelete().
		Model((*domain.TimeSlot)(nil)).
		Where("day = ?", domain.DateOf(date)).
		Exec(ctx)
	return err
}

func (r schedulingTx) CountBookedSlots(ctx context.Context, date time.Time) (int, error) {
	return r.tx.NewSelect().
		Model((*domain.TimeSlot)(nil)).
		Where("day = ?", domain.DateOf(date)).
		Where("status = ?", domain.SlotStatusBooked).
		Count(ctx)
}

func (r schedulingTx) GetSlot(ctx context.Context, slotID uuid.UUID) (domain.TimeSlot, error) {
	var slot domain.TimeSlot
	err := r.tx.NewSelect().
		Model(&slot).
		Where("id = ?", slotID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TimeSlot{}, store.ErrNotFound
		}
		return domain.TimeSlot{}, err
	}
	return slot, nil
}

// ReserveSlot transitions available -> booked with the status check and the write
// in one conditional UPDATE. Losers of a race observe zero affected rows.
func (r schedulingTx) ReserveSlot(ctx context.Context, slotID uuid.UUID) error {
	res, err := r.tx.NewUpdate().
		Model((*domain.TimeSlot)(nil)).
		Set("status = ?", domain.SlotStatusBooked).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", slotID).
		Where("status = ?", domain.SlotStatusAvailable).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrSlotUnavailable
	}
	return nil
}

func (r schedulingTx) ReleaseSlot(ctx context.Context, slotID uuid.UUID) error {
	_, err := r.tx.NewUpdate().
		Model((*domain.TimeSlot)(nil)).
		Set("status = ?", domain.SlotStatusAvailable).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", slotID).
		Where("status = ?", domain.SlotStatusBooked).
		Exec(ctx)
	return err
}

func (r schedulingTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Unique slot_id violation: another appointment already holds the slot.
			return domain.Appointment{}, store.ErrSlotUnavailable
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r schedulingTx) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.tx.NewSelect().
		Model(&appt).
		Where("id = ?", appointmentID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r schedulingTx) GetUserAppointment(ctx context.Context, appointmentID uuid.UUID, userID string) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.tx.NewSelect().
		Model(&appt).
		Where("id = ?", appointmentID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

// SetAppointmentStatus writes the new status guarded by the prior one, the same
// conditional-update idiom as ReserveSlot. Zero affected rows means the status
// moved underneath the caller.
func (r schedulingTx) SetAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, from, to domain.AppointmentStatus) (domain.Appointment, error) {
	appt := domain.Appointment{ID: appointmentID, Status: to}
	res, err := r.tx.NewUpdate().
		Model(&appt).
		Column("status", "updated_at").
		Where("id = ?", appointmentID).
		Where("status = ?", from).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrInvalidTransition
	}
	return appt, nil
}

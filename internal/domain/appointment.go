package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// CanTransitionTo reports whether the status change is permitted. The only legal
// moves are pending -> confirmed/cancelled/completed and confirmed -> cancelled/completed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s.Terminal() || !next.Valid() || next == s || next == AppointmentStatusPending {
		return false
	}
	return true
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid"`
	SlotID          uuid.UUID         `bun:"slot_id,notnull,type:uuid"`
	UserID          string            `bun:"user_id,notnull"`
	FirstName       string            `bun:"first_name,notnull"`
	LastName        string            `bun:"last_name,notnull"`
	Email           string            `bun:"email,notnull"`
	PhoneNumber     string            `bun:"phone_number,notnull"`
	DateOfBirth     *time.Time        `bun:"date_of_birth,type:date"`
	Address         string            `bun:"address"`
	AppointmentDate time.Time         `bun:"appointment_date,notnull,type:date"`
	Notes           string            `bun:"notes"`
	Status          AppointmentStatus `bun:"status,notnull,default:'pending'"`
	ConsultationFee int64             `bun:"consultation_fee,notnull,default:0"`
	IsPaid          bool              `bun:"is_paid,notnull,default:false"`
	PaymentRef      string            `bun:"payment_ref"`
	CreatedAt       time.Time         `bun:"created_at,notnull"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Status == "" {
			a.Status = AppointmentStatusPending
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

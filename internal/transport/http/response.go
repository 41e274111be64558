package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/service/scheduling"
	"bookline/backend/internal/store"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type paginatedResponse struct {
	Data       any `json:"data"`
	TotalCount int `json:"total_count"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

type slotResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type calendarDayResponse struct {
	Date        string `json:"date"`
	IsOffDay    bool   `json:"is_off_day"`
	Description string `json:"description,omitempty"`
}

type appointmentResponse struct {
	ID              string     `json:"id"`
	SlotID          string     `json:"slot_id"`
	UserID          string     `json:"user_id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phone_number"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Address         string     `json:"address,omitempty"`
	AppointmentDate string     `json:"appointment_date"`
	Notes           string     `json:"notes,omitempty"`
	Status          string     `json:"status"`
	ConsultationFee int64      `json:"consultation_fee"`
	IsPaid          bool       `json:"is_paid"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toSlotResponse(s domain.TimeSlot) slotResponse {
	return slotResponse{
		ID:        s.ID.String(),
		Date:      s.Day.Format(dateLayout),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    string(s.Status),
	}
}

func toSlotResponses(slots []domain.TimeSlot) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	return out
}

func toAppointmentResponse(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID.String(),
		SlotID:          a.SlotID.String(),
		UserID:          a.UserID,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		PhoneNumber:     a.PhoneNumber,
		DateOfBirth:     a.DateOfBirth,
		Address:         a.Address,
		AppointmentDate: a.AppointmentDate.Format(dateLayout),
		Notes:           a.Notes,
		Status:          string(a.Status),
		ConsultationFee: a.ConsultationFee,
		IsPaid:          a.IsPaid,
		CreatedAt:       a.CreatedAt,
	}
}

func toAppointmentResponses(appts []domain.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeServiceError maps domain failures to HTTP statuses. Unknown errors get a
// generic 500 so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *scheduling.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: vErr.Error()})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, store.ErrSlotUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "slot is no longer available"})
	case errors.Is(err, store.ErrSlotBooked):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "slot has an active booking"})
	case errors.Is(err, store.ErrSlotOverlap):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "slot overlaps an existing slot"})
	case errors.Is(err, store.ErrDayClosed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "day is closed for booking"})
	case errors.Is(err, store.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "status change not permitted"})
	default:
		log.Error("request failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

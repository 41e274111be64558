package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"bookline/backend/internal/service/scheduling"
)

type bookAppointmentRequest struct {
	SlotID          string `json:"slot_id" validate:"required,uuid"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"required"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address         string `json:"address"`
	Notes           string `json:"notes"`
	ConsultationFee int64  `json:"consultation_fee" validate:"gte=0"`
	PaymentMethodID string `json:"payment_method_id"`
}

func (h *Handler) bookAppointment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With("handler", "bookAppointment")

	var req bookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "slot_id must be a UUID"})
		return
	}

	var dateOfBirth *time.Time
	if req.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date_of_birth must be in YYYY-MM-DD form"})
			return
		}
		dateOfBirth = &dob
	}

	appt, err := h.svc.Book(r.Context(), scheduling.BookInput{
		SlotID:          slotID,
		UserID:          userID(r),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		DateOfBirth:     dateOfBirth,
		Address:         req.Address,
		Notes:           req.Notes,
		ConsultationFee: req.ConsultationFee,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info(
		"appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("slot_id", appt.SlotID.String()),
		slog.String("user_id", appt.UserID),
	)
	writeJSON(w, http.StatusCreated, dataResponse{Data: toAppointmentResponse(appt)})
}

func (h *Handler) listMyAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With("handler", "listMyAppointments")

	limit, offset, ok := paginationParams(w, r)
	if !ok {
		return
	}

	appts, total, err := h.svc.ListUserAppointments(r.Context(), userID(r), limit, offset)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, paginatedResponse{
		Data:       toAppointmentResponses(appts),
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	})
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With("handler", "cancelAppointment")

	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be a UUID"})
		return
	}

	appt, err := h.svc.Cancel(r.Context(), id, userID(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info(
		"appointment cancelled",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("user_id", appt.UserID),
	)
	writeJSON(w, http.StatusOK, dataResponse{Data: toAppointmentResponse(appt)})
}

func paginationParams(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
			return 0, 0, false
		}
		limit = n
	}
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "offset must be an integer"})
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

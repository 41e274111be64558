package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/service/scheduling"
)

type setOffDayRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsOffDay    bool   `json:"is_off_day"`
	Description string `json:"description"`
}

func (h *Handler) setOffDay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With("handler", "setOffDay")

	var req setOffDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be in YYYY-MM-DD form"})
		return
	}

	day, err := h.svc.SetOffDay(r.Context(), date, req.IsOffDay, req.Description)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("off day updated", slog.String("date", req.Date), slog.Bool("is_off_day", day.IsOffDay))
	writeJSON(w, http.StatusOK, dataResponse{Data: calendarDayResponse{
		Date:        day.Date.Format(dateLayout),
		IsOffDay:    day.IsOffDay,
		Description: day.Description,
	}})
}

type createSlotsRequest struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime      string `json:"end_time" validate:"omitempty,datetime=15:04"`
	SlotDuration int    `json:"slot_duration" validate:"gte=0"`
	BreakTime    int    `json:"break_time" validate:"gte=0"`
}

func (h *Handler) createSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With("handler", "createSlots")

	var req createSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be in YYYY-MM-DD form"})
		return
	}

	slots, err := h.svc.CreateSlotsForDay(r.Context(), scheduling.CreateSlotsInput{
		Date:         date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		SlotDuration: req.SlotDuration,
		BreakTime:    req.BreakTime,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("slots created", slog.String("date", req.Date), slog.Int("count", len(slots)))
	writeJSON(w, http.StatusCreated, dataResponse{Data: toSlotResponses(slots)})
}

type updateSlotRequest struct {
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

func (h *Handler) updateSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With("handler", "updateSlot")

	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be a UUID"})
		return
	}

	var req updateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	slot, err := h.svc.UpdateSlot(r.Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("slot updated", slog.String("slot_id", slot.ID.String()))
	writeJSON(w, http.StatusOK, dataResponse{Data: toSlotResponse(slot)})
}

func (h *Handler) deleteSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With("handler", "deleteSlot")

	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be a UUID"})
		return
	}

	if err := h.svc.DeleteSlot(r.Context(), id); err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("slot deleted", slog.String("slot_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With("handler", "listAppointments")

	limit, offset, ok := paginationParams(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	in := scheduling.ListAppointmentsInput{
		SearchTerm: query.Get("search"),
		Status:     domain.AppointmentStatus(query.Get("status")),
		Limit:      limit,
		Offset:     offset,
	}
	if raw := query.Get("start_date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "start_date must be in YYYY-MM-DD form"})
			return
		}
		in.StartDate = &d
	}
	if raw := query.Get("end_date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "end_date must be in YYYY-MM-DD form"})
			return
		}
		in.EndDate = &d
	}

	appts, total, err := h.svc.ListAppointments(r.Context(), in)
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

type setAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled completed"`
}

func (h *Handler) setAppointmentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With("handler", "setAppointmentStatus")

	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id must be a UUID"})
		return
	}

	var req setAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	appt, err := h.svc.SetAppointmentStatus(r.Context(), id, domain.AppointmentStatus(req.Status))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info(
		"appointment status updated",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("status", string(appt.Status)),
	)
	writeJSON(w, http.StatusOK, dataResponse{Data: toAppointmentResponse(appt)})
}

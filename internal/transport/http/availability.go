package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

const defaultAvailabilityWindowDays = 30

func (h *Handler) availableDays(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With("handler", "availableDays")

	window := defaultAvailabilityWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "days must be an integer"})
			return
		}
		window = n
	}

	days, err := h.svc.AvailableDays(r.Context(), window)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(dateLayout))
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: out})
}

func (h *Handler) availableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With("handler", "availableSlots")

	date, err := time.Parse(dateLayout, ps.ByName("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be in YYYY-MM-DD form"})
		return
	}

	slots, err := h.svc.AvailableSlots(r.Context(), date)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: toSlotResponses(slots)})
}

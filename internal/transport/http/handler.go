package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/service/scheduling"
)

const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"

	roleAdmin = "admin"
)

type schedulingService interface {
	SetOffDay(ctx context.Context, date time.Time, isOffDay bool, description string) (domain.CalendarDay, error)
	CreateSlotsForDay(ctx context.Context, in scheduling.CreateSlotsInput) ([]domain.TimeSlot, error)
	AvailableSlots(ctx context.Context, date time.Time) ([]domain.TimeSlot, error)
	AvailableDays(ctx context.Context, windowDays int) ([]time.Time, error)
	Book(ctx context.Context, in scheduling.BookInput) (domain.Appointment, error)
	SetAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID, userID string) (domain.Appointment, error)
	ListUserAppointments(ctx context.Context, userID string, limit, offset int) ([]domain.Appointment, int, error)
	ListAppointments(ctx context.Context, in scheduling.ListAppointmentsInput) ([]domain.Appointment, int, error)
	UpdateSlot(ctx context.Context, slotID uuid.UUID, startTime, endTime string) (domain.TimeSlot, error)
	DeleteSlot(ctx context.Context, slotID uuid.UUID) error
}

type Handler struct {
	svc      schedulingService
	validate *validator.Validate
	log      *slog.Logger
}

func NewHandler(svc schedulingService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With(slog.String("component", "http")),
	}
}

func (h *Handler) Router() http.Handler {
	router := httprouter.New()

	router.GET("/healthz", h.health)

	router.GET("/v1/availability/days", h.availableDays)
	router.GET("/v1/availability/slots/:date", h.availableSlots)

	router.POST("/v1/appointments", h.requireUser(h.bookAppointment))
	router.GET("/v1/appointments", h.requireUser(h.listMyAppointments))
	router.PATCH("/v1/appointments/:id/cancel", h.requireUser(h.cancelAppointment))

	router.POST("/v1/admin/off-days", h.requireAdmin(h.setOffDay))
	router.POST("/v1/admin/slots", h.requireAdmin(h.createSlots))
	router.PATCH("/v1/admin/slots/:id", h.requireAdmin(h.updateSlot))
	router.DELETE("/v1/admin/slots/:id", h.requireAdmin(h.deleteSlot))
	router.GET("/v1/admin/appointments", h.requireAdmin(h.listAppointments))
	router.PATCH("/v1/admin/appointments/:id/status", h.requireAdmin(h.setAppointmentStatus))

	return h.logRequests(router)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Identity is established upstream; these headers are trusted as-is.
func userID(r *http.Request) string {
	return r.Header.Get(headerUserID)
}

func isAdmin(r *http.Request) bool {
	return r.Header.Get(headerUserRole) == roleAdmin
}

func (h *Handler) requireUser(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if userID(r) == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		next(w, r, ps)
	}
}

func (h *Handler) requireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if userID(r) == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		if !isAdmin(r) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		next(w, r, ps)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.log.Info(
			"request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

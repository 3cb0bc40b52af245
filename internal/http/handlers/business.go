package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/pkg/logging"
)

// BusinessAPI is the owner-facing part of the BarberQ API client.
type BusinessAPI interface {
	AddService(ctx context.Context, token string, svc barberq.NewService) (string, error)
	GetAvailability(ctx context.Context, token string) ([]barberq.DaySchedule, error)
	SetAvailability(ctx context.Context, token string, schedule []barberq.DaySchedule) error
	ListBusinessBookings(ctx context.Context, token string) ([]barberq.BusinessBooking, error)
}

// BusinessHandler serves the business dashboard: services, weekly
// availability and upcoming bookings. The owner's bearer token is forwarded.
type BusinessHandler struct {
	api    BusinessAPI
	logger *logging.Logger
}

// NewBusinessHandler creates a business dashboard handler.
func NewBusinessHandler(api BusinessAPI, logger *logging.Logger) *BusinessHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BusinessHandler{api: api, logger: logger}
}

// Routes mounts the dashboard endpoints.
func (h *BusinessHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/services", h.AddService)
	r.Get("/availability", h.GetAvailability)
	r.Put("/availability", h.SetAvailability)
	r.Get("/bookings", h.ListBookings)
	return r
}

type availabilityRequest struct {
	Schedule []barberq.DaySchedule `json:"schedule"`
}

// AddService handles POST /business/services.
func (h *BusinessHandler) AddService(w http.ResponseWriter, r *http.Request) {
	var req barberq.NewService
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := h.api.AddService(r.Context(), bearerToken(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("service added", "service_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"serviceId": id, "message": "Service added."})
}

// GetAvailability handles GET /business/availability. The response always
// carries all seven days.
func (h *BusinessHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	saved, err := h.api.GetAvailability(r.Context(), bearerToken(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedule": barberq.WeekSchedule(saved)})
}

// SetAvailability handles PUT /business/availability.
func (h *BusinessHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.api.SetAvailability(r.Context(), bearerToken(r), req.Schedule); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Availability saved."})
}

// ListBookings handles GET /business/bookings.
func (h *BusinessHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.api.ListBusinessBookings(r.Context(), bearerToken(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []barberq.BusinessBooking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *BusinessHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr   *barberq.ValidationError
		tokErr *barberq.TokenError
		apiErr *barberq.APIError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Message)
	case errors.As(err, &tokErr):
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		writeError(w, apiErr.Status, msg)
	default:
		h.logger.Error("business request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, barberq.MessageGeneric)
	}
}

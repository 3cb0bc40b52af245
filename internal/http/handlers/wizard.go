package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/internal/booking"
	"github.com/wolfman30/barberq/internal/wizard"
	"github.com/wolfman30/barberq/pkg/logging"
)

// SessionManager is the part of booking.Manager the HTTP layer drives.
type SessionManager interface {
	Today() time.Time
	Start(ctx context.Context, businessID string) (*booking.Session, error)
	Get(ctx context.Context, id string) (*booking.Session, error)
	End(ctx context.Context, id string) error
	SelectService(ctx context.Context, id, serviceID string) (*booking.Session, error)
	SelectDate(ctx context.Context, id, date string) (*booking.Session, bool, error)
	SelectSlot(ctx context.Context, id, startTime string) (*booking.Session, error)
	ChangeSlot(ctx context.Context, id string) (*booking.Session, error)
	ChangeService(ctx context.Context, id string) (*booking.Session, error)
	PrevMonth(ctx context.Context, id string) (*booking.Session, error)
	NextMonth(ctx context.Context, id string) (*booking.Session, error)
	Confirm(ctx context.Context, id, token string) (*booking.Session, error)
}

// BarberDirectory lists the businesses customers can book with.
type BarberDirectory interface {
	ListBarbers(ctx context.Context) ([]barberq.Barber, error)
}

// WizardHandler exposes booking wizard sessions over HTTP.
type WizardHandler struct {
	sessions SessionManager
	barbers  BarberDirectory
	logger   *logging.Logger
}

// NewWizardHandler creates a wizard handler.
func NewWizardHandler(sessions SessionManager, barbers BarberDirectory, logger *logging.Logger) *WizardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WizardHandler{sessions: sessions, barbers: barbers, logger: logger}
}

// Routes mounts the session endpoints.
func (h *WizardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.StartSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.EndSession)
		r.Post("/service", h.SelectService)
		r.Post("/service/change", h.ChangeService)
		r.Post("/date", h.SelectDate)
		r.Post("/slot", h.SelectSlot)
		r.Post("/slot/change", h.ChangeSlot)
		r.Post("/calendar/prev", h.PrevMonth)
		r.Post("/calendar/next", h.NextMonth)
		r.Post("/confirm", h.Confirm)
	})
	return r
}

type startSessionRequest struct {
	BusinessID string `json:"businessId"`
}

type selectServiceRequest struct {
	ServiceID string `json:"serviceId"`
}

type selectDateRequest struct {
	Date string `json:"date"`
}

type selectSlotRequest struct {
	StartTime string `json:"startTime"`
}

// ListBarbers handles GET /barbers.
func (h *WizardHandler) ListBarbers(w http.ResponseWriter, r *http.Request) {
	if h.barbers == nil {
		writeJSON(w, http.StatusOK, map[string]any{"barbers": []barberq.Barber{}})
		return
	}
	barbers, err := h.barbers.ListBarbers(r.Context())
	if err != nil {
		h.logger.Warn("barber directory fetch failed", "error", err)
		// the directory degrades to an empty list like the services screen
		barbers = []barberq.Barber{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"barbers": barbers})
}

// StartSession handles POST /sessions.
func (h *WizardHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	if req.BusinessID == "" {
		writeError(w, http.StatusBadRequest, "businessId is required")
		return
	}
	sess, err := h.sessions.Start(r.Context(), req.BusinessID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.View(h.sessions.Today()))
}

// GetSession handles GET /sessions/{sessionID}.
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	h.respond(w, r, sess, err)
}

// EndSession handles DELETE /sessions/{sessionID}.
func (h *WizardHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectService handles POST /sessions/{sessionID}/service.
func (h *WizardHandler) SelectService(w http.ResponseWriter, r *http.Request) {
	var req selectServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ServiceID) == "" {
		writeError(w, http.StatusBadRequest, "serviceId is required")
		return
	}
	sess, err := h.sessions.SelectService(r.Context(), chi.URLParam(r, "sessionID"), req.ServiceID)
	h.respond(w, r, sess, err)
}

// ChangeService handles POST /sessions/{sessionID}/service/change.
func (h *WizardHandler) ChangeService(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.ChangeService(r.Context(), chi.URLParam(r, "sessionID"))
	h.respond(w, r, sess, err)
}

// SelectDate handles POST /sessions/{sessionID}/date. A date that is not
// selectable leaves the session unchanged.
func (h *WizardHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req selectDateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := time.Parse(barberq.DateLayout, strings.TrimSpace(req.Date)); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	sess, _, err := h.sessions.SelectDate(r.Context(), chi.URLParam(r, "sessionID"), strings.TrimSpace(req.Date))
	h.respond(w, r, sess, err)
}

// SelectSlot handles POST /sessions/{sessionID}/slot.
func (h *WizardHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req selectSlotRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.StartTime) == "" {
		writeError(w, http.StatusBadRequest, "startTime is required")
		return
	}
	sess, err := h.sessions.SelectSlot(r.Context(), chi.URLParam(r, "sessionID"), req.StartTime)
	h.respond(w, r, sess, err)
}

// ChangeSlot handles POST /sessions/{sessionID}/slot/change.
func (h *WizardHandler) ChangeSlot(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.ChangeSlot(r.Context(), chi.URLParam(r, "sessionID"))
	h.respond(w, r, sess, err)
}

// PrevMonth handles POST /sessions/{sessionID}/calendar/prev.
func (h *WizardHandler) PrevMonth(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.PrevMonth(r.Context(), chi.URLParam(r, "sessionID"))
	h.respond(w, r, sess, err)
}

// NextMonth handles POST /sessions/{sessionID}/calendar/next.
func (h *WizardHandler) NextMonth(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.NextMonth(r.Context(), chi.URLParam(r, "sessionID"))
	h.respond(w, r, sess, err)
}

// Confirm handles POST /sessions/{sessionID}/confirm. The caller's bearer token
// is forwarded to the booking API; a failed booking is reported in the view.
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Confirm(r.Context(), chi.URLParam(r, "sessionID"), bearerToken(r))
	h.respond(w, r, sess, err)
}

func (h *WizardHandler) respond(w http.ResponseWriter, r *http.Request, sess *booking.Session, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View(h.sessions.Today()))
}

func (h *WizardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, wizard.ErrUnknownService), errors.Is(err, wizard.ErrUnknownSlot):
		writeError(w, http.StatusBadRequest, err.Error())
	case booking.IsRejection(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("wizard request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, barberq.MessageGeneric)
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

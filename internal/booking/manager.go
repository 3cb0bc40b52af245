// Package booking drives wizard sessions: it keeps each page visit's wizard in a
// session store and runs the wizard's fetch and submit commands against the
// BarberQ API.
package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/internal/observability/metrics"
	"github.com/wolfman30/barberq/internal/wizard"
	"github.com/wolfman30/barberq/pkg/logging"
)

var bookingTracer = otel.Tracer("barberq.internal.booking")

// submitGrace is added to the booking timeout to bound how long a session can
// stay in flight when a result is never recorded.
const submitGrace = 5 * time.Second

// API is the part of the BarberQ client the wizard needs.
type API interface {
	GetServices(ctx context.Context, businessID string) ([]barberq.Service, error)
	GetSlots(ctx context.Context, businessID, serviceID string) ([]barberq.Slot, error)
	CreateBooking(ctx context.Context, token string, req barberq.BookingRequest) (*barberq.BookingResponse, error)
}

// Session is one wizard bound to its session id.
type Session struct {
	ID     string
	Wizard *wizard.Wizard
}

// Options tunes a Manager. Zero values pick defaults.
type Options struct {
	Logger         *logging.Logger
	Metrics        *metrics.BookingMetrics
	SessionTTL     time.Duration
	FetchTimeout   time.Duration
	BookingTimeout time.Duration
	Location       *time.Location
	Now            func() time.Time
}

// Manager creates sessions and applies customer commands to them.
type Manager struct {
	api            API
	store          Store
	logger         *logging.Logger
	metrics        *metrics.BookingMetrics
	ttl            time.Duration
	fetchTimeout   time.Duration
	bookingTimeout time.Duration
	loc            *time.Location
	now            func() time.Time
	locks          keyedMutex
}

// NewManager constructs a session manager.
func NewManager(api API, store Store, opts Options) *Manager {
	if api == nil {
		panic("booking: api client required")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.BookingTimeout <= 0 {
		opts.BookingTimeout = 15 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		api:            api,
		store:          store,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		ttl:            opts.SessionTTL,
		fetchTimeout:   opts.FetchTimeout,
		bookingTimeout: opts.BookingTimeout,
		loc:            opts.Location,
		now:            opts.Now,
		locks:          keyedMutex{locks: make(map[string]*refLock)},
	}
}

// Today returns the current wall-clock time in the business timezone.
func (m *Manager) Today() time.Time {
	return m.now().In(m.loc)
}

// Start opens a session for businessID and loads its services. A failed
// services fetch still yields a session, showing an empty list.
func (m *Manager) Start(ctx context.Context, businessID string) (*Session, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.start", trace.WithAttributes(
		attribute.String("barberq.business_id", businessID),
	))
	defer span.End()

	id := uuid.NewString()
	w := wizard.New(businessID, m.Today())

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.fetchTimeout)
	start := time.Now()
	services, err := m.api.GetServices(fetchCtx, businessID)
	cancel()
	m.metrics.ObserveUpstream("get_services", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		m.logger.Warn("services fetch failed", "business_id", businessID, "error", err)
		w.ServicesFailed()
	} else {
		w.ServicesLoaded(services)
	}

	if err := m.store.Save(ctx, id, w.Snapshot(), m.ttl); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save session")
		return nil, err
	}
	m.metrics.ObserveSessionStarted()
	m.logger.Info("wizard session started", "session_id", id, "business_id", businessID, "services", len(services))
	return &Session{ID: id, Wizard: w}, nil
}

// Get loads a session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	w, err := wizard.Restore(snap)
	if err != nil {
		return nil, err
	}
	if w.ExpireSubmission(m.now()) {
		m.logger.Warn("abandoned booking submission released", "session_id", id)
	}
	return &Session{ID: id, Wizard: w}, nil
}

// End discards a session when the customer navigates away.
func (m *Manager) End(ctx context.Context, id string) error {
	unlock := m.locks.lock(id)
	defer unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("wizard session ended", "session_id", id)
	return nil
}

// SelectService picks a service and loads its slots. If another selection
// supersedes this one while the fetch is outstanding, the fetched slots are
// dropped and the newer selection wins.
func (m *Manager) SelectService(ctx context.Context, id, serviceID string) (*Session, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.select_service", trace.WithAttributes(
		attribute.String("barberq.session_id", id),
		attribute.String("barberq.service_id", serviceID),
	))
	defer span.End()

	var cmd wizard.FetchSlots
	if _, err := m.update(ctx, id, "select_service", func(w *wizard.Wizard) error {
		var err error
		cmd, err = w.SelectService(serviceID, m.Today())
		return err
	}); err != nil {
		span.RecordError(err)
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.fetchTimeout)
	start := time.Now()
	slots, fetchErr := m.api.GetSlots(fetchCtx, cmd.BusinessID, cmd.ServiceID)
	cancel()
	m.metrics.ObserveUpstream("get_slots", fetchErr, time.Since(start).Seconds())
	if fetchErr != nil {
		span.RecordError(fetchErr)
		m.logger.Warn("slots fetch failed", "session_id", id, "service_id", cmd.ServiceID, "error", fetchErr)
	}

	return m.update(ctx, id, "slots_loaded", func(w *wizard.Wizard) error {
		var applied bool
		if fetchErr != nil {
			applied = w.SlotsFailed(cmd.Generation)
		} else {
			applied = w.SlotsLoaded(cmd.Generation, slots)
		}
		if !applied {
			m.metrics.ObserveStale("slots")
			m.logger.Debug("stale slots result dropped", "session_id", id, "service_id", cmd.ServiceID)
		}
		return nil
	})
}

// SelectDate picks a calendar day. selected is false when the day is not selectable.
func (m *Manager) SelectDate(ctx context.Context, id, date string) (sess *Session, selected bool, err error) {
	sess, err = m.update(ctx, id, "select_date", func(w *wizard.Wizard) error {
		var err error
		selected, err = w.SelectDate(date, m.Today())
		return err
	})
	if err == nil && !selected {
		m.metrics.ObserveTransition("select_date", "noop")
	}
	return sess, selected, err
}

// SelectSlot picks the slot starting at startTime on the selected date.
func (m *Manager) SelectSlot(ctx context.Context, id, startTime string) (*Session, error) {
	return m.update(ctx, id, "select_slot", func(w *wizard.Wizard) error {
		return w.SelectSlotAt(startTime)
	})
}

// ChangeSlot goes back from confirmation to the time picker.
func (m *Manager) ChangeSlot(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, "change_slot", func(w *wizard.Wizard) error {
		return w.ChangeSlot()
	})
}

// ChangeService goes back to the services list.
func (m *Manager) ChangeService(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, "change_service", func(w *wizard.Wizard) error {
		return w.ChangeService()
	})
}

// PrevMonth moves the calendar back a month.
func (m *Manager) PrevMonth(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, "prev_month", func(w *wizard.Wizard) error {
		_, err := w.PrevMonth(m.Today())
		return err
	})
}

// NextMonth moves the calendar forward a month.
func (m *Manager) NextMonth(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, "next_month", func(w *wizard.Wizard) error {
		_, err := w.NextMonth(m.Today())
		return err
	})
}

// Confirm submits the booking with the customer's bearer token. A failed
// submission is not an error: the session stays on confirm with the message set.
// The session's booking claim in the store keeps submissions single-flight
// across every process sharing it.
func (m *Manager) Confirm(ctx context.Context, id, token string) (*Session, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.confirm", trace.WithAttributes(
		attribute.String("barberq.session_id", id),
	))
	defer span.End()

	hold := m.bookingTimeout + submitGrace
	claimed, err := m.store.ClaimSubmission(ctx, id, hold)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !claimed {
		m.metrics.ObserveTransition("confirm", "rejected")
		return nil, wizard.ErrBookingInFlight
	}
	// The result must land even if the caller goes away mid-request.
	bg := context.WithoutCancel(ctx)
	defer func() {
		if err := m.store.ReleaseSubmission(bg, id); err != nil {
			m.logger.Warn("booking claim release failed", "session_id", id, "error", err)
		}
	}()

	var cmd wizard.SubmitBooking
	if _, err := m.update(ctx, id, "confirm", func(w *wizard.Wizard) error {
		var err error
		cmd, err = w.ConfirmBy(token, m.now().Add(hold))
		return err
	}); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("barberq.business_id", cmd.Request.BusinessID),
		attribute.String("barberq.service_id", cmd.Request.ServiceID),
	)

	bookCtx, cancel := context.WithTimeout(bg, m.bookingTimeout)
	start := time.Now()
	resp, bookErr := m.api.CreateBooking(bookCtx, cmd.Token, cmd.Request)
	cancel()
	m.metrics.ObserveUpstream("create_booking", bookErr, time.Since(start).Seconds())

	apply := func(w *wizard.Wizard) error {
		var applied bool
		if bookErr != nil {
			applied = w.BookingFailed(cmd.Generation, barberq.UserMessage(bookErr))
		} else {
			applied = w.BookingSucceeded(cmd.Generation, resp.BookingID)
		}
		if !applied {
			m.metrics.ObserveStale("booking")
		}
		return nil
	}
	sess, err := m.update(bg, id, "booking_result", apply)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.logger.Warn("saving booking result failed, retrying", "session_id", id, "error", err)
		sess, err = m.update(bg, id, "booking_result", apply)
	}
	if err != nil {
		// The submission deadline releases the session if the result never lands.
		span.RecordError(err)
		span.SetStatus(codes.Error, "save booking result")
		m.logger.Error("booking result lost", "session_id", id, "booking_error", bookErr, "error", err)
		return nil, err
	}

	st := sess.Wizard.State()
	m.metrics.ObserveBooking(st.Step == wizard.StepDone)
	if st.Step == wizard.StepDone {
		m.logger.Info("booking confirmed", "session_id", id, "business_id", cmd.Request.BusinessID, "booking_id", st.BookingID)
	} else {
		span.RecordError(bookErr)
		span.SetStatus(codes.Error, st.Error)
		m.logger.Warn("booking failed", "session_id", id, "business_id", cmd.Request.BusinessID, "error", bookErr)
	}
	return sess, nil
}

// update runs fn on the stored wizard under the session lock and saves the result.
// A rejected command leaves the stored session untouched.
func (m *Manager) update(ctx context.Context, id, op string, fn func(*wizard.Wizard) error) (*Session, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	sess, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess.Wizard); err != nil {
		m.metrics.ObserveTransition(op, "rejected")
		return nil, err
	}
	if err := m.store.Save(ctx, id, sess.Wizard.Snapshot(), m.ttl); err != nil {
		return nil, err
	}
	m.metrics.ObserveTransition(op, "ok")
	return sess, nil
}

// IsRejection reports whether err is a command the current step does not accept.
func IsRejection(err error) bool {
	return errors.Is(err, wizard.ErrInvalidTransition) ||
		errors.Is(err, wizard.ErrUnknownSlot) ||
		errors.Is(err, wizard.ErrUnknownService) ||
		errors.Is(err, wizard.ErrBookingInFlight)
}

// keyedMutex serializes updates per session id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

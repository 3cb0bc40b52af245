package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/barberq/internal/availability"
	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/internal/calendar"
)

// Wizard holds one booking flow for one business. It performs no I/O: operations
// that need the network return a command, and the caller reports the outcome.
// A Wizard is not safe for concurrent use.
type Wizard struct {
	businessID string
	state      State

	services       []barberq.Service
	servicesLoaded bool

	slots       []barberq.Slot
	index       availability.DateIndex
	slotsLoaded bool
	fetchGen    uint64

	view calendar.Month

	submitting     bool
	bookGen        uint64
	submitDeadline time.Time
}

// New starts a wizard on the services step.
func New(businessID string, today time.Time) *Wizard {
	return &Wizard{
		businessID: businessID,
		state:      State{Step: StepServices},
		index:      availability.Project(nil),
		view:       calendar.MonthOf(today),
	}
}

// BusinessID returns the business being booked.
func (w *Wizard) BusinessID() string { return w.businessID }

// State returns a copy of the current selection state.
func (w *Wizard) State() State { return w.state.clone() }

// Services returns the loaded services.
func (w *Wizard) Services() []barberq.Service {
	out := make([]barberq.Service, len(w.services))
	copy(out, w.services)
	return out
}

// LoadingServices reports whether the services list has not arrived yet.
func (w *Wizard) LoadingServices() bool { return !w.servicesLoaded }

// NoServices reports a loaded but empty services list.
func (w *Wizard) NoServices() bool { return w.servicesLoaded && len(w.services) == 0 }

// LoadingSlots reports whether a slots fetch for the selected service is outstanding.
func (w *Wizard) LoadingSlots() bool {
	return w.state.Step != StepServices && !w.slotsLoaded
}

// NoSlots reports that the selected service has no open slots at all.
func (w *Wizard) NoSlots() bool {
	return w.state.Step != StepServices && w.slotsLoaded && w.index.IsEmpty()
}

// Submitting reports whether a booking request is in flight.
func (w *Wizard) Submitting() bool { return w.submitting }

// Index returns the current date index.
func (w *Wizard) Index() availability.DateIndex { return w.index }

// ViewMonth returns the month shown on the calendar.
func (w *Wizard) ViewMonth() calendar.Month { return w.view }

// ServicesLoaded installs the services list.
func (w *Wizard) ServicesLoaded(services []barberq.Service) {
	w.services = append([]barberq.Service(nil), services...)
	w.servicesLoaded = true
}

// ServicesFailed records a failed services fetch, which shows as an empty list.
func (w *Wizard) ServicesFailed() {
	w.services = nil
	w.servicesLoaded = true
}

// SelectService picks a service and clears every downstream selection. It is
// allowed from any step before done.
func (w *Wizard) SelectService(serviceID string, today time.Time) (FetchSlots, error) {
	if w.state.Step == StepDone {
		return FetchSlots{}, transitionError("select service", w.state.Step)
	}
	if w.submitting {
		return FetchSlots{}, ErrBookingInFlight
	}
	svc, ok := w.findService(serviceID)
	if !ok {
		return FetchSlots{}, fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
	}

	w.state = State{Step: StepSlots, SelectedService: &svc}
	w.resetSlots()
	w.view = calendar.MonthOf(today)

	return FetchSlots{Generation: w.fetchGen, BusinessID: w.businessID, ServiceID: svc.ID}, nil
}

// SlotsLoaded replaces the slot list. Results for a superseded fetch are dropped
// and reported as false.
func (w *Wizard) SlotsLoaded(generation uint64, slots []barberq.Slot) bool {
	if !w.awaitingSlots(generation) {
		return false
	}
	w.slots = append([]barberq.Slot(nil), slots...)
	w.index = availability.Project(w.slots)
	w.slotsLoaded = true
	return true
}

// SlotsFailed records a failed slots fetch as "no slots".
func (w *Wizard) SlotsFailed(generation uint64) bool {
	return w.SlotsLoaded(generation, nil)
}

// SelectDate picks a calendar day. Days that are not selectable leave the state
// unchanged and report false.
func (w *Wizard) SelectDate(date string, today time.Time) (bool, error) {
	if w.state.Step != StepSlots {
		return false, transitionError("select date", w.state.Step)
	}
	if !calendar.Selectable(today, date, w.index.AvailableDates()) {
		return false, nil
	}
	w.state.SelectedDate = date
	w.state.SelectedSlot = nil
	return true, nil
}

// FindSlot looks up the slot starting at startTime on the selected date.
func (w *Wizard) FindSlot(startTime string) (barberq.Slot, bool) {
	if w.state.SelectedDate == "" {
		return barberq.Slot{}, false
	}
	startTime = strings.TrimSpace(startTime)
	for _, s := range w.index.Slots(w.state.SelectedDate) {
		if s.StartTime == startTime {
			return s, true
		}
	}
	return barberq.Slot{}, false
}

// DateSlots returns the slots of the selected date in server order.
func (w *Wizard) DateSlots() []barberq.Slot {
	if w.state.SelectedDate == "" {
		return nil
	}
	return w.index.Slots(w.state.SelectedDate)
}

// SelectSlot picks a time on the selected date and moves to confirmation.
func (w *Wizard) SelectSlot(slot barberq.Slot) error {
	if w.state.Step != StepSlots || w.state.SelectedDate == "" {
		return transitionError("select slot", w.state.Step)
	}
	if slot.Date != w.state.SelectedDate || !w.index.Contains(slot) {
		return fmt.Errorf("%w: %s %s", ErrUnknownSlot, slot.Date, slot.StartTime)
	}
	w.state.SelectedSlot = &slot
	w.state.Step = StepConfirm
	w.state.Error = ""
	return nil
}

// SelectSlotAt picks the slot starting at startTime on the selected date.
func (w *Wizard) SelectSlotAt(startTime string) error {
	if w.state.Step != StepSlots || w.state.SelectedDate == "" {
		return transitionError("select slot", w.state.Step)
	}
	slot, ok := w.FindSlot(startTime)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownSlot, w.state.SelectedDate, strings.TrimSpace(startTime))
	}
	return w.SelectSlot(slot)
}

// ChangeSlot returns from confirmation to the time picker, keeping the date.
func (w *Wizard) ChangeSlot() error {
	if w.state.Step != StepConfirm {
		return transitionError("change slot", w.state.Step)
	}
	if w.submitting {
		return ErrBookingInFlight
	}
	w.state.SelectedSlot = nil
	w.state.Step = StepSlots
	w.state.Error = ""
	return nil
}

// ChangeService returns to the services list and drops every selection.
func (w *Wizard) ChangeService() error {
	if w.state.Step != StepSlots && w.state.Step != StepConfirm {
		return transitionError("change service", w.state.Step)
	}
	if w.submitting {
		return ErrBookingInFlight
	}
	w.state = State{Step: StepServices}
	w.resetSlots()
	return nil
}

// PrevMonth moves the calendar back one month if the bounds allow it.
func (w *Wizard) PrevMonth(today time.Time) (bool, error) {
	if w.state.Step != StepSlots {
		return false, transitionError("previous month", w.state.Step)
	}
	view, ok := calendar.Prev(today, w.clampedView(today))
	w.view = view
	return ok, nil
}

// NextMonth moves the calendar forward one month if the bounds allow it.
func (w *Wizard) NextMonth(today time.Time) (bool, error) {
	if w.state.Step != StepSlots {
		return false, transitionError("next month", w.state.Step)
	}
	view, ok := calendar.Next(today, w.clampedView(today))
	w.view = view
	return ok, nil
}

// Calendar renders the viewed month against the loaded availability.
func (w *Wizard) Calendar(today time.Time) calendar.ViewModel {
	return calendar.Build(today, w.clampedView(today), w.index.AvailableDates())
}

// Confirm starts a booking submission with the caller's bearer token. The
// submission never expires; see ConfirmBy.
func (w *Wizard) Confirm(token string) (SubmitBooking, error) {
	return w.ConfirmBy(token, time.Time{})
}

// ConfirmBy starts a booking submission that ExpireSubmission may abandon once
// deadline has passed without an outcome being reported. A zero deadline never expires.
func (w *Wizard) ConfirmBy(token string, deadline time.Time) (SubmitBooking, error) {
	if w.state.Step != StepConfirm {
		return SubmitBooking{}, transitionError("confirm", w.state.Step)
	}
	if w.submitting {
		return SubmitBooking{}, ErrBookingInFlight
	}
	w.submitting = true
	w.bookGen++
	w.submitDeadline = deadline
	w.state.Error = ""

	slot := w.state.SelectedSlot
	return SubmitBooking{
		Generation: w.bookGen,
		Token:      token,
		Request: barberq.BookingRequest{
			BusinessID: w.businessID,
			ServiceID:  w.state.SelectedService.ID,
			Date:       slot.Date,
			StartTime:  slot.StartTime,
			EndTime:    slot.EndTime,
		},
	}, nil
}

// BookingSucceeded completes the flow. An empty id is treated as a failure.
func (w *Wizard) BookingSucceeded(generation uint64, bookingID string) bool {
	if !w.awaitingBooking(generation) {
		return false
	}
	if strings.TrimSpace(bookingID) == "" {
		return w.BookingFailed(generation, barberq.MessageBookingFailed)
	}
	w.submitting = false
	w.submitDeadline = time.Time{}
	w.state.Step = StepDone
	w.state.BookingID = bookingID
	w.state.Error = ""
	return true
}

// BookingFailed keeps the wizard on confirmation with message shown to the customer.
func (w *Wizard) BookingFailed(generation uint64, message string) bool {
	if !w.awaitingBooking(generation) {
		return false
	}
	if strings.TrimSpace(message) == "" {
		message = barberq.MessageGeneric
	}
	w.submitting = false
	w.submitDeadline = time.Time{}
	w.state.Error = message
	return true
}

// ExpireSubmission abandons a submission whose deadline has passed, so the
// customer can retry or go back. A result arriving afterwards is dropped.
func (w *Wizard) ExpireSubmission(now time.Time) bool {
	if !w.submitting || w.submitDeadline.IsZero() || now.Before(w.submitDeadline) {
		return false
	}
	w.submitting = false
	w.submitDeadline = time.Time{}
	w.bookGen++
	w.state.Error = barberq.MessageGeneric
	return true
}

func (w *Wizard) awaitingSlots(generation uint64) bool {
	return w.state.Step != StepServices && generation == w.fetchGen
}

func (w *Wizard) awaitingBooking(generation uint64) bool {
	return w.submitting && w.state.Step == StepConfirm && generation == w.bookGen
}

// resetSlots drops the slot list and supersedes any outstanding fetch.
func (w *Wizard) resetSlots() {
	w.fetchGen++
	w.slots = nil
	w.index = availability.Project(nil)
	w.slotsLoaded = false
}

func (w *Wizard) findService(id string) (barberq.Service, bool) {
	for _, svc := range w.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return barberq.Service{}, false
}

// clampedView keeps the view inside the navigable window when the clock has
// moved on since the view was set.
func (w *Wizard) clampedView(today time.Time) calendar.Month {
	current := calendar.MonthOf(today)
	if w.view.Before(current) {
		return current
	}
	if last := current.Add(calendar.MaxMonthsAhead - 1); w.view.After(last) {
		return last
	}
	return w.view
}

// Package wizard implements the four-step booking flow: pick a service, pick a
// date and time, confirm, done.
package wizard

import (
	"errors"
	"fmt"

	"github.com/wolfman30/barberq/internal/barberq"
)

// Step names a wizard screen.
type Step string

const (
	StepServices Step = "services"
	StepSlots    Step = "slots"
	StepConfirm  Step = "confirm"
	StepDone     Step = "done"
)

var (
	ErrInvalidTransition = errors.New("wizard: transition not allowed")
	ErrUnknownService    = errors.New("wizard: unknown service")
	ErrUnknownSlot       = errors.New("wizard: slot not offered on the selected date")
	ErrBookingInFlight   = errors.New("wizard: booking already in flight")
	ErrInvalidState      = errors.New("wizard: invalid state")
)

// State is the customer-visible selection state. Empty strings stand for "none".
type State struct {
	Step            Step             `json:"step"`
	SelectedService *barberq.Service `json:"selectedService"`
	SelectedDate    string           `json:"selectedDate,omitempty"`
	SelectedSlot    *barberq.Slot    `json:"selectedSlot"`
	BookingID       string           `json:"bookingId,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// Validate checks the cross-field invariants of each step.
func (s State) Validate() error {
	switch s.Step {
	case StepServices:
		if s.SelectedService != nil || s.SelectedDate != "" || s.SelectedSlot != nil {
			return fmt.Errorf("%w: services step carries selections", ErrInvalidState)
		}
	case StepSlots:
		if s.SelectedService == nil {
			return fmt.Errorf("%w: slots step without service", ErrInvalidState)
		}
		if s.SelectedSlot != nil {
			return fmt.Errorf("%w: slots step carries a slot", ErrInvalidState)
		}
	case StepConfirm, StepDone:
		if s.SelectedService == nil || s.SelectedSlot == nil || s.SelectedDate == "" {
			return fmt.Errorf("%w: %s step missing selections", ErrInvalidState, s.Step)
		}
		if s.SelectedSlot.Date != s.SelectedDate {
			return fmt.Errorf("%w: slot date %s differs from selected date %s", ErrInvalidState, s.SelectedSlot.Date, s.SelectedDate)
		}
	default:
		return fmt.Errorf("%w: unknown step %q", ErrInvalidState, s.Step)
	}
	if (s.Step == StepDone) != (s.BookingID != "") {
		return fmt.Errorf("%w: booking id must be set exactly in the done step", ErrInvalidState)
	}
	return nil
}

func (s State) clone() State {
	out := s
	if s.SelectedService != nil {
		svc := *s.SelectedService
		out.SelectedService = &svc
	}
	if s.SelectedSlot != nil {
		slot := *s.SelectedSlot
		out.SelectedSlot = &slot
	}
	return out
}

// FetchSlots asks the caller to load slots for a service and report back with
// SlotsLoaded or SlotsFailed using the same Generation.
type FetchSlots struct {
	Generation uint64
	BusinessID string
	ServiceID  string
}

// SubmitBooking asks the caller to post a booking and report back with
// BookingSucceeded or BookingFailed using the same Generation.
type SubmitBooking struct {
	Generation uint64
	Token      string
	Request    barberq.BookingRequest
}

func transitionError(op string, step Step) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, step)
}

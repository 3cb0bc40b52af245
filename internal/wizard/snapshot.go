package wizard

import (
	"fmt"
	"time"

	"github.com/wolfman30/barberq/internal/availability"
	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/internal/calendar"
)

// Snapshot is the serializable form of a Wizard, used by session stores.
type Snapshot struct {
	BusinessID      string            `json:"businessId"`
	State           State             `json:"state"`
	Services        []barberq.Service `json:"services"`
	ServicesLoaded  bool              `json:"servicesLoaded"`
	Slots           []barberq.Slot    `json:"slots"`
	SlotsLoaded     bool              `json:"slotsLoaded"`
	FetchGeneration uint64            `json:"fetchGeneration"`
	View            calendar.Month    `json:"view"`
	Submitting      bool              `json:"submitting"`
	BookGeneration  uint64            `json:"bookGeneration"`
	SubmitDeadline  time.Time         `json:"submitDeadline"`
}

// Snapshot captures the wizard.
func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{
		BusinessID:      w.businessID,
		State:           w.state.clone(),
		Services:        w.Services(),
		ServicesLoaded:  w.servicesLoaded,
		Slots:           append([]barberq.Slot(nil), w.slots...),
		SlotsLoaded:     w.slotsLoaded,
		FetchGeneration: w.fetchGen,
		View:            w.view,
		Submitting:      w.submitting,
		BookGeneration:  w.bookGen,
		SubmitDeadline:  w.submitDeadline,
	}
}

// Restore rebuilds a wizard from a snapshot, rejecting states that break the step invariants.
func Restore(s Snapshot) (*Wizard, error) {
	if err := s.State.Validate(); err != nil {
		return nil, fmt.Errorf("restore wizard: %w", err)
	}
	if s.Submitting && s.State.Step != StepConfirm {
		return nil, fmt.Errorf("restore wizard: %w: submitting outside confirm", ErrInvalidState)
	}
	return &Wizard{
		businessID:     s.BusinessID,
		state:          s.State.clone(),
		services:       append([]barberq.Service(nil), s.Services...),
		servicesLoaded: s.ServicesLoaded,
		slots:          append([]barberq.Slot(nil), s.Slots...),
		index:          availability.Project(s.Slots),
		slotsLoaded:    s.SlotsLoaded,
		fetchGen:       s.FetchGeneration,
		view:           s.View,
		submitting:     s.Submitting,
		bookGen:        s.BookGeneration,
		submitDeadline: s.SubmitDeadline,
	}, nil
}

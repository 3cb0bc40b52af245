package booking

import (
	"time"

	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/internal/calendar"
	"github.com/wolfman30/barberq/internal/wizard"
)

// ServiceView is a service as shown on the services list and the confirmation card.
type ServiceView struct {
	ID              string  `json:"serviceId"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
	PriceLabel      string  `json:"priceLabel"`
	DurationLabel   string  `json:"durationLabel"`
}

// SlotView is a bookable time.
type SlotView struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Label     string `json:"label"`
}

// SessionView is everything a page needs to render the current step.
type SessionView struct {
	SessionID       string              `json:"sessionId"`
	BusinessID      string              `json:"businessId"`
	Step            wizard.Step         `json:"step"`
	Services        []ServiceView       `json:"services"`
	LoadingServices bool                `json:"loadingServices"`
	NoServices      bool                `json:"noServices"`
	SelectedService *ServiceView        `json:"selectedService,omitempty"`
	LoadingSlots    bool                `json:"loadingSlots"`
	NoSlots         bool                `json:"noSlots"`
	Calendar        *calendar.ViewModel `json:"calendar,omitempty"`
	Dates           []string            `json:"dates"`
	SelectedDate    string              `json:"selectedDate,omitempty"`
	DateLabel       string              `json:"dateLabel,omitempty"`
	Slots           []SlotView          `json:"slots"`
	SelectedSlot    *SlotView           `json:"selectedSlot,omitempty"`
	Submitting      bool                `json:"submitting"`
	BookingID       string              `json:"bookingId,omitempty"`
	Error           string              `json:"error,omitempty"`
}

// View renders the session for today.
func (s *Session) View(today time.Time) SessionView {
	w := s.Wizard
	st := w.State()
	v := SessionView{
		SessionID:       s.ID,
		BusinessID:      w.BusinessID(),
		Step:            st.Step,
		Services:        []ServiceView{},
		LoadingServices: w.LoadingServices(),
		NoServices:      w.NoServices(),
		Dates:           []string{},
		Slots:           []SlotView{},
		Submitting:      w.Submitting(),
		BookingID:       st.BookingID,
		Error:           st.Error,
	}
	if st.Step == wizard.StepServices {
		for _, svc := range w.Services() {
			v.Services = append(v.Services, serviceView(svc))
		}
	}
	if st.SelectedService != nil {
		sv := serviceView(*st.SelectedService)
		v.SelectedService = &sv
	}
	if st.SelectedDate != "" {
		v.SelectedDate = st.SelectedDate
		v.DateLabel = barberq.DateLabel(st.SelectedDate)
	}
	if st.Step == wizard.StepSlots {
		v.LoadingSlots = w.LoadingSlots()
		v.NoSlots = w.NoSlots()
		if !v.LoadingSlots && !v.NoSlots {
			cal := w.Calendar(today)
			v.Calendar = &cal
			v.Dates = w.Index().Dates()
		}
		for _, slot := range w.DateSlots() {
			v.Slots = append(v.Slots, slotView(slot))
		}
	}
	if st.SelectedSlot != nil {
		sl := slotView(*st.SelectedSlot)
		v.SelectedSlot = &sl
	}
	return v
}

func serviceView(s barberq.Service) ServiceView {
	return ServiceView{
		ID:              s.ID,
		Name:            s.Name,
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
		PriceLabel:      s.PriceLabel(),
		DurationLabel:   s.DurationLabel(),
	}
}

func slotView(s barberq.Slot) SlotView {
	return SlotView{
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Label:     s.Label(),
	}
}

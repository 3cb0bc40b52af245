// Package barberq contains the client and wire types for the BarberQ booking API.
package barberq

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// Barber is a business listed in the BarberQ directory.
type Barber struct {
	BusinessID string `json:"businessId"`
	Name       string `json:"name"`
}

// Service is a bookable service offered by a business.
type Service struct {
	ID              string  `json:"serviceId"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
}

// UnmarshalJSON accepts both "serviceId" and "id" for the identifier.
func (s *Service) UnmarshalJSON(data []byte) error {
	type plain Service
	var wire struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Service(wire.plain)
	if s.ID == "" {
		s.ID = wire.AltID
	}
	return nil
}

// PriceLabel formats the price the way the storefront shows it.
func (s Service) PriceLabel() string {
	return fmt.Sprintf("€%.2f", s.Price)
}

// DurationLabel formats the duration in minutes.
func (s Service) DurationLabel() string {
	return fmt.Sprintf("%d min", s.DurationMinutes)
}

// Slot is one bookable interval on one date.
type Slot struct {
	Date      string `json:"date"`      // YYYY-MM-DD
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
}

// Day parses the slot date in loc. ok is false when the date is malformed.
func (s Slot) Day(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Label renders the slot as "Mon, 10 Jun · 10:00–10:30".
func (s Slot) Label() string {
	return fmt.Sprintf("%s · %s–%s", DateLabel(s.Date), s.StartTime, s.EndTime)
}

// DateLabel renders a YYYY-MM-DD date as "Mon, 10 Jun", or returns it unchanged if malformed.
func DateLabel(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Mon, 2 Jan")
}

// BookingRequest is the body of POST /api/bookings.
type BookingRequest struct {
	BusinessID string `json:"businessId"`
	ServiceID  string `json:"serviceId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// BookingResponse is returned on a successful booking.
type BookingResponse struct {
	BookingID string `json:"bookingId"`
}

type servicesResponse struct {
	Services []Service `json:"services"`
}

type slotsResponse struct {
	Slots []Slot `json:"slots"`
}

type barbersResponse struct {
	Barbers []Barber `json:"barbers"`
}

type errorResponse struct {
	Message string `json:"message"`
}

package barberq

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Weekdays are the schedule day codes in display order.
var Weekdays = []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

const (
	defaultOpen  = "09:00"
	defaultClose = "18:00"
)

// ValidationError rejects a business request before it reaches the API.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "barberq: " + e.Message }

// NewService is the body of POST /api/services.
type NewService struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
}

// Validate checks the fields the API requires.
func (s NewService) Validate() error {
	if strings.TrimSpace(s.Name) == "" || s.Price < 0 || s.DurationMinutes <= 0 {
		return &ValidationError{Message: "Missing required fields."}
	}
	return nil
}

// DaySchedule is a business's opening hours on one weekday.
type DaySchedule struct {
	Day         string `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// ValidateSchedule checks a schedule the way PUT /api/availability does.
func ValidateSchedule(schedule []DaySchedule) error {
	if len(schedule) == 0 {
		return &ValidationError{Message: "Missing schedule."}
	}
	for _, d := range schedule {
		if !isWeekday(d.Day) || strings.TrimSpace(d.StartTime) == "" || strings.TrimSpace(d.EndTime) == "" {
			return &ValidationError{Message: "Invalid entry for day: " + d.Day}
		}
	}
	return nil
}

// WeekSchedule fills saved entries into a full Monday to Sunday week.
// Days without an entry are closed from 09:00 to 18:00.
func WeekSchedule(saved []DaySchedule) []DaySchedule {
	byDay := make(map[string]DaySchedule, len(saved))
	for _, d := range saved {
		byDay[d.Day] = d
	}
	week := make([]DaySchedule, 0, len(Weekdays))
	for _, day := range Weekdays {
		if d, ok := byDay[day]; ok {
			week = append(week, d)
			continue
		}
		week = append(week, DaySchedule{Day: day, StartTime: defaultOpen, EndTime: defaultClose})
	}
	return week
}

func isWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// BusinessBooking is an upcoming confirmed booking as the business sees it.
type BusinessBooking struct {
	BookingID   string `json:"bookingId"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	ServiceName string `json:"serviceName"`
	ClientID    string `json:"clientId"`
}

type addServiceResponse struct {
	ServiceID string `json:"serviceId"`
}

type scheduleBody struct {
	Schedule []DaySchedule `json:"schedule"`
}

type businessBookingsResponse struct {
	Bookings []BusinessBooking `json:"bookings"`
}

// AddService creates a service for the business that owns token and returns its id.
func (c *Client) AddService(ctx context.Context, token string, svc NewService) (string, error) {
	if err := checkBearer(token, c.now()); err != nil {
		return "", err
	}
	svc.Name = strings.TrimSpace(svc.Name)
	if err := svc.Validate(); err != nil {
		return "", err
	}
	var out addServiceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/services", token, svc, &out); err != nil {
		return "", fmt.Errorf("add service: %w", err)
	}
	if out.ServiceID == "" {
		return "", fmt.Errorf("add service: response carried no service id")
	}
	return out.ServiceID, nil
}

// GetAvailability returns the saved weekly schedule; days never saved are absent.
func (c *Client) GetAvailability(ctx context.Context, token string) ([]DaySchedule, error) {
	if err := checkBearer(token, c.now()); err != nil {
		return nil, err
	}
	var out scheduleBody
	if err := c.doJSON(ctx, http.MethodGet, "/api/availability", token, nil, &out); err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return out.Schedule, nil
}

// SetAvailability saves the given days of the weekly schedule.
func (c *Client) SetAvailability(ctx context.Context, token string, schedule []DaySchedule) error {
	if err := checkBearer(token, c.now()); err != nil {
		return err
	}
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/availability", token, scheduleBody{Schedule: schedule}, nil); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	return nil
}

// ListBusinessBookings lists upcoming confirmed bookings of the business that
// owns token, ordered by date then start time.
func (c *Client) ListBusinessBookings(ctx context.Context, token string) ([]BusinessBooking, error) {
	if err := checkBearer(token, c.now()); err != nil {
		return nil, err
	}
	var out businessBookingsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/bookings", token, nil, &out); err != nil {
		return nil, fmt.Errorf("list business bookings: %w", err)
	}
	sort.SliceStable(out.Bookings, func(i, j int) bool {
		a, b := out.Bookings[i], out.Bookings[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StartTime < b.StartTime
	})
	return out.Bookings, nil
}

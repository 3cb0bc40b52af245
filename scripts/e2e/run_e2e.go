// Package main walks the booking wizard end to end against a running API.
//
// Scenarios:
//   - happy-path: service, first open date, first time, confirm
//   - change-service: reselecting a service clears the date and time
//   - calendar-bounds: navigation stops at the current month and three months ahead
//   - no-token: confirming without a bearer token keeps the customer on confirm
//
// Usage:
//
//	API_BASE_URL=... BUSINESS_ID=... BOOKING_TOKEN=... go run scripts/e2e/run_e2e.go [scenario-name]
//
// happy-path creates a real booking and only runs when BOOKING_TOKEN is set.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var (
	apiBase    string
	businessID string
	token      string
	httpClient = &http.Client{Timeout: 30 * time.Second}
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

// view is the subset of the session view the scenarios inspect.
type view struct {
	SessionID       string `json:"sessionId"`
	Step            string `json:"step"`
	NoServices      bool   `json:"noServices"`
	NoSlots         bool   `json:"noSlots"`
	SelectedDate    string `json:"selectedDate"`
	BookingID       string `json:"bookingId"`
	Error           string `json:"error"`
	SelectedService *struct {
		ID string `json:"serviceId"`
	} `json:"selectedService"`
	Services []struct {
		ID string `json:"serviceId"`
	} `json:"services"`
	Calendar *struct {
		CanPrev bool `json:"canPrev"`
		CanNext bool `json:"canNext"`
		Cells   []struct {
			Date       string `json:"date"`
			Selectable bool   `json:"selectable"`
		} `json:"cells"`
	} `json:"calendar"`
	Slots []struct {
		StartTime string `json:"startTime"`
	} `json:"slots"`
}

func call(method, path string, payload any, bearer string) (*view, int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, resp.StatusCode, nil
	}
	var v view
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, resp.StatusCode, err
	}
	return &v, resp.StatusCode, nil
}

func start(t *T) *view {
	v, _, err := call(http.MethodPost, "/sessions", map[string]string{"businessId": businessID}, "")
	if err != nil {
		t.fatalf("start session: %v", err)
		return nil
	}
	if v.NoServices || len(v.Services) == 0 {
		t.fatalf("business %s has no services", businessID)
		return nil
	}
	return v
}

func end(v *view) {
	_, _, _ = call(http.MethodDelete, "/sessions/"+v.SessionID, nil, "")
}

func firstSelectable(v *view) string {
	if v.Calendar == nil {
		return ""
	}
	for _, c := range v.Calendar.Cells {
		if c.Selectable {
			return c.Date
		}
	}
	return ""
}

// toConfirm drives a fresh session up to the confirm step.
func toConfirm(t *T) *view {
	v := start(t)
	if v == nil {
		return nil
	}
	id := v.SessionID
	v, _, err := call(http.MethodPost, "/sessions/"+id+"/service", map[string]string{"serviceId": v.Services[0].ID}, "")
	if err != nil {
		t.fatalf("select service: %v", err)
		return nil
	}
	t.check("service selection moves to slots", v.Step == "slots")

	date := firstSelectable(v)
	for date == "" && v.Calendar != nil && v.Calendar.CanNext {
		v, _, err = call(http.MethodPost, "/sessions/"+id+"/calendar/next", nil, "")
		if err != nil {
			t.fatalf("next month: %v", err)
			return nil
		}
		date = firstSelectable(v)
	}
	if date == "" {
		t.fatalf("no selectable date in the bookable window")
		return nil
	}
	v, _, err = call(http.MethodPost, "/sessions/"+id+"/date", map[string]string{"date": date}, "")
	if err != nil {
		t.fatalf("select date: %v", err)
		return nil
	}
	t.check("date selected", v.SelectedDate == date)
	t.check("selected date has slots", len(v.Slots) > 0)
	if len(v.Slots) == 0 {
		return nil
	}
	v, _, err = call(http.MethodPost, "/sessions/"+id+"/slot", map[string]string{"startTime": v.Slots[0].StartTime}, "")
	if err != nil {
		t.fatalf("select slot: %v", err)
		return nil
	}
	t.check("slot selection moves to confirm", v.Step == "confirm")
	return v
}

func scenarioHappyPath(t *T) {
	if token == "" {
		fmt.Println("    SKIP: BOOKING_TOKEN not set")
		return
	}
	v := toConfirm(t)
	if v == nil {
		return
	}
	defer end(v)
	v, _, err := call(http.MethodPost, "/sessions/"+v.SessionID+"/confirm", nil, token)
	if err != nil {
		t.fatalf("confirm: %v", err)
		return
	}
	t.check("booking completes", v.Step == "done")
	t.check("booking id returned", v.BookingID != "")
	if v.Error != "" {
		fmt.Printf("    booking error: %s\n", v.Error)
	}
}

func scenarioChangeService(t *T) {
	v := toConfirm(t)
	if v == nil {
		return
	}
	defer end(v)
	v, _, err := call(http.MethodPost, "/sessions/"+v.SessionID+"/service/change", nil, "")
	if err != nil {
		t.fatalf("change service: %v", err)
		return
	}
	t.check("back on services", v.Step == "services")
	t.check("service cleared", v.SelectedService == nil)
	t.check("date cleared", v.SelectedDate == "")
}

func scenarioCalendarBounds(t *T) {
	v := start(t)
	if v == nil {
		return
	}
	defer end(v)
	id := v.SessionID
	v, _, err := call(http.MethodPost, "/sessions/"+id+"/service", map[string]string{"serviceId": v.Services[0].ID}, "")
	if err != nil {
		t.fatalf("select service: %v", err)
		return
	}
	if v.NoSlots || v.Calendar == nil {
		fmt.Println("    SKIP: service has no slots")
		return
	}
	t.check("cannot go before the current month", !v.Calendar.CanPrev)
	for i := 0; i < 5; i++ {
		if v, _, err = call(http.MethodPost, "/sessions/"+id+"/calendar/next", nil, ""); err != nil {
			t.fatalf("next month: %v", err)
			return
		}
	}
	t.check("cannot go past the last bookable month", !v.Calendar.CanNext)
}

func scenarioNoToken(t *T) {
	v := toConfirm(t)
	if v == nil {
		return
	}
	defer end(v)
	v, _, err := call(http.MethodPost, "/sessions/"+v.SessionID+"/confirm", nil, "")
	if err != nil {
		t.fatalf("confirm: %v", err)
		return
	}
	t.check("stays on confirm", v.Step == "confirm")
	t.check("asks the customer to log in", v.Error == "Please log in to book.")
}

func main() {
	apiBase = os.Getenv("API_BASE_URL")
	businessID = os.Getenv("BUSINESS_ID")
	token = os.Getenv("BOOKING_TOKEN")
	if apiBase == "" || businessID == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL and BUSINESS_ID required")
		os.Exit(1)
	}

	scenarios := []scenario{
		{"happy-path", scenarioHappyPath},
		{"change-service", scenarioChangeService},
		{"calendar-bounds", scenarioCalendarBounds},
		{"no-token", scenarioNoToken},
	}

	// Filter by name if argument provided
	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}
		fmt.Printf("\nSCENARIO: %s\n", s.Name)
		t := &T{name: s.Name}
		s.Fn(t)
		totalPassed += t.passed
		totalFailed += t.failed
		fmt.Printf("  %s: %d passed, %d failed\n", s.Name, t.passed, t.failed)
	}

	fmt.Printf("\nTOTAL: %d passed, %d failed\n", totalPassed, totalFailed)
	if totalFailed > 0 {
		os.Exit(1)
	}
}

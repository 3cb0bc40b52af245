package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barberq/internal/barberq"
	"github.com/wolfman30/barberq/pkg/logging"
)

// fakeOwnerAPI serves the owner endpoints of the BarberQ API for the token "owner".
type fakeOwnerAPI struct {
	mu       sync.Mutex
	schedule []barberq.DaySchedule
	services []barberq.NewService
	down     bool
}

func (f *fakeOwnerAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Something went wrong. Please try again."}`))
		return
	}
	if r.Header.Get("Authorization") != "Bearer owner" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized."}`))
		return
	}
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/services":
		var svc barberq.NewService
		_ = json.NewDecoder(r.Body).Decode(&svc)
		f.services = append(f.services, svc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"serviceId":"svc-new","message":"Service added."}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/availability":
		_ = json.NewEncoder(w).Encode(map[string]any{"schedule": f.schedule})
	case r.Method == http.MethodPut && r.URL.Path == "/api/availability":
		var body struct {
			Schedule []barberq.DaySchedule `json:"schedule"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.schedule = body.Schedule
		_, _ = w.Write([]byte(`{"message":"Availability saved."}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/bookings":
		_, _ = w.Write([]byte(`{"bookings":[
			{"bookingId":"b2","date":"2024-06-12","startTime":"09:00","endTime":"09:30","serviceName":"Skin fade","clientId":"c2"},
			{"bookingId":"b1","date":"2024-06-10","startTime":"10:00","endTime":"10:30","serviceName":"Skin fade","clientId":"c1"}
		]}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOwnerAPI) addedServices() []barberq.NewService {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]barberq.NewService(nil), f.services...)
}

func newBusinessServer(t *testing.T) (*httptest.Server, *fakeOwnerAPI) {
	t.Helper()
	upstream := &fakeOwnerAPI{}
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	logger := logging.New("error")
	h := NewBusinessHandler(barberq.NewClient(api.URL, logger), logger)

	mux := http.NewServeMux()
	mux.Handle("/business/", http.StripPrefix("/business", h.Routes()))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, upstream
}

func TestBusinessHandler_AddService(t *testing.T) {
	srv, upstream := newBusinessServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/business/services",
		`{"name":"Hot towel shave","price":18,"durationMinutes":25}`, "Authorization", "Bearer owner")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "svc-new", body["serviceId"])
	added := upstream.addedServices()
	require.Len(t, added, 1)
	assert.Equal(t, "Hot towel shave", added[0].Name)

	resp, body = do(t, http.MethodPost, srv.URL+"/business/services",
		`{"name":"","price":18,"durationMinutes":25}`, "Authorization", "Bearer owner")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields.", body["error"])
	assert.Len(t, upstream.addedServices(), 1)
}

func TestBusinessHandler_Unauthorized(t *testing.T) {
	srv, _ := newBusinessServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/business/bookings", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized.", body["error"])

	resp, body = do(t, http.MethodGet, srv.URL+"/business/availability", "", "Authorization", "Bearer someone-else")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized.", body["error"])
}

func TestBusinessHandler_AvailabilityRoundTrip(t *testing.T) {
	srv, _ := newBusinessServer(t)
	url := srv.URL + "/business/availability"

	resp, body := do(t, http.MethodGet, url, "", "Authorization", "Bearer owner")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["schedule"], 7)
	first := body["schedule"].([]any)[0].(map[string]any)
	assert.Equal(t, "MON", first["day"])
	assert.Equal(t, false, first["isAvailable"])

	resp, body = do(t, http.MethodPut, url,
		`{"schedule":[{"day":"MON","startTime":"10:00","endTime":"16:00","isAvailable":true}]}`, "Authorization", "Bearer owner")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Availability saved.", body["message"])

	_, body = do(t, http.MethodGet, url, "", "Authorization", "Bearer owner")
	first = body["schedule"].([]any)[0].(map[string]any)
	assert.Equal(t, "10:00", first["startTime"])
	assert.Equal(t, true, first["isAvailable"])

	resp, body = do(t, http.MethodPut, url, `{"schedule":[{"day":"MONDAY","startTime":"10:00","endTime":"16:00"}]}`, "Authorization", "Bearer owner")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid entry for day: MONDAY", body["error"])
}

func TestBusinessHandler_ListBookings(t *testing.T) {
	srv, _ := newBusinessServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/business/bookings", "", "Authorization", "Bearer owner")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bookings := body["bookings"].([]any)
	require.Len(t, bookings, 2)
	assert.Equal(t, "b1", bookings[0].(map[string]any)["bookingId"])
}

func TestBusinessHandler_UpstreamFailureIsBadGateway(t *testing.T) {
	srv, upstream := newBusinessServer(t)
	upstream.mu.Lock()
	upstream.down = true
	upstream.mu.Unlock()

	resp, body := do(t, http.MethodGet, srv.URL+"/business/bookings", "", "Authorization", "Bearer owner")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, barberq.MessageGeneric, body["error"])
}

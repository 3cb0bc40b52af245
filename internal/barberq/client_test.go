package barberq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barberq/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, logging.New("error"), opts...)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "client-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestGetServices_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/barbers/biz-1/services", r.URL.Path)
		_, _ = w.Write([]byte(`{"services":[{"serviceId":"svc1","name":"Skin fade","price":25,"durationMinutes":30},{"id":"svc2","name":"Beard trim","price":12.5,"durationMinutes":15}]}`))
	})

	services, err := client.GetServices(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "svc1", services[0].ID)
	assert.Equal(t, "svc2", services[1].ID, "legacy id field should be accepted")
	assert.Equal(t, "€12.50", services[1].PriceLabel())
	assert.Equal(t, "15 min", services[1].DurationLabel())
}

func TestGetServices_RequiresBusinessID(t *testing.T) {
	client := NewClient("http://unused.invalid", nil)
	_, err := client.GetServices(context.Background(), " ")
	require.Error(t, err)
}

func TestGetSlots_PreservesServerOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/barbers/biz-1/slots", r.URL.Path)
		assert.Equal(t, "svc 1", r.URL.Query().Get("serviceId"))
		_, _ = w.Write([]byte(`{"slots":[
			{"date":"2024-06-12","startTime":"09:00","endTime":"09:30"},
			{"date":"2024-06-10","startTime":"10:00","endTime":"10:30"}]}`))
	})

	slots, err := client.GetSlots(context.Background(), "biz-1", "svc 1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2024-06-12", slots[0].Date)
	assert.Equal(t, "Mon, 10 Jun · 10:00–10:30", slots[1].Label())
}

func TestGetSlots_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Service not found."}`))
	})

	_, err := client.GetSlots(context.Background(), "biz-1", "svc-x")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Service not found.", apiErr.Message)
}

func TestGetServices_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"services":[`))
	})

	_, err := client.GetServices(context.Background(), "biz-1")
	require.Error(t, err)
}

func TestListBarbers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/barbers", r.URL.Path)
		_, _ = w.Write([]byte(`{"barbers":[{"businessId":"biz-1","name":"fade@example.com"}]}`))
	})

	barbers, err := client.ListBarbers(context.Background())
	require.NoError(t, err)
	require.Len(t, barbers, 1)
	assert.Equal(t, "biz-1", barbers[0].BusinessID)
}

func TestCreateBooking_Success(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, BookingRequest{BusinessID: "biz-1", ServiceID: "svc1", Date: "2024-06-10", StartTime: "10:00", EndTime: "10:30"}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"bookingId":"bk_123"}`))
	})

	resp, err := client.CreateBooking(context.Background(), token, BookingRequest{
		BusinessID: "biz-1", ServiceID: "svc1", Date: "2024-06-10", StartTime: "10:00", EndTime: "10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "bk_123", resp.BookingID)
}

func TestCreateBooking_Conflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Slot no longer available"}`))
	})

	_, err := client.CreateBooking(context.Background(), "opaque-token", BookingRequest{BusinessID: "biz-1"})
	require.Error(t, err)
	assert.Equal(t, "Slot no longer available", UserMessage(err))
}

func TestCreateBooking_ErrorWithoutMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failed", http.StatusBadGateway)
	})

	_, err := client.CreateBooking(context.Background(), "opaque-token", BookingRequest{})
	require.Error(t, err)
	assert.Equal(t, MessageBookingFailed, UserMessage(err))
}

func TestCreateBooking_TokenChecks(t *testing.T) {
	called := false
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, WithClock(func() time.Time { return now }))

	_, err := client.CreateBooking(context.Background(), "", BookingRequest{})
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Equal(t, "Please log in to book.", UserMessage(err))

	_, err = client.CreateBooking(context.Background(), signedToken(t, now.Add(-time.Minute)), BookingRequest{})
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.False(t, called, "no request should be sent with an unusable token")
}

func TestCreateBooking_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"bookingId":"late"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.CreateBooking(ctx, "opaque-token", BookingRequest{})
	require.Error(t, err)
	assert.Equal(t, MessageGeneric, UserMessage(err))
}

func TestDateLabel_Malformed(t *testing.T) {
	assert.Equal(t, "not-a-date", DateLabel("not-a-date"))
	assert.Equal(t, "Sat, 1 Jun", DateLabel("2024-06-01"))
}

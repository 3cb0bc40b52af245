package barberq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/barberq/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:3000"
	defaultTimeout = 15 * time.Second

	// Fallback messages shown when the API gives no usable message.
	MessageBookingFailed = "Booking failed."
	MessageGeneric       = "Something went wrong. Please try again."
)

// APIError is a non-2xx response from the BarberQ API.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("barberq: %s returned %d", e.Path, e.Status)
	}
	return fmt.Sprintf("barberq: %s returned %d: %s", e.Path, e.Status, e.Message)
}

// Client talks to the BarberQ HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithClock overrides the clock used for bearer token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a BarberQ API client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListBarbers returns the businesses in the directory.
func (c *Client) ListBarbers(ctx context.Context) ([]Barber, error) {
	var out barbersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/barbers", "", nil, &out); err != nil {
		return nil, fmt.Errorf("list barbers: %w", err)
	}
	return out.Barbers, nil
}

// GetServices lists the services of a business.
func (c *Client) GetServices(ctx context.Context, businessID string) ([]Service, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, fmt.Errorf("get services: business id is required")
	}
	path := fmt.Sprintf("/api/barbers/%s/services", url.PathEscape(businessID))

	var out servicesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, fmt.Errorf("get services: %w", err)
	}
	return out.Services, nil
}

// GetSlots lists bookable slots of a business for one service, in server order.
func (c *Client) GetSlots(ctx context.Context, businessID, serviceID string) ([]Slot, error) {
	if strings.TrimSpace(businessID) == "" || strings.TrimSpace(serviceID) == "" {
		return nil, fmt.Errorf("get slots: business id and service id are required")
	}
	q := url.Values{}
	q.Set("serviceId", serviceID)
	path := fmt.Sprintf("/api/barbers/%s/slots?%s", url.PathEscape(businessID), q.Encode())

	var out slotsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	return out.Slots, nil
}

// CreateBooking submits a booking on behalf of the holder of token.
func (c *Client) CreateBooking(ctx context.Context, token string, req BookingRequest) (*BookingResponse, error) {
	if err := checkBearer(token, c.now()); err != nil {
		return nil, err
	}
	var out BookingResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/bookings", token, req, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			apiErr.Message = MessageBookingFailed
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if out.BookingID == "" {
		return nil, fmt.Errorf("create booking: response carried no booking id")
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Path: req.URL.Path}
		var wire errorResponse
		if json.Unmarshal(respBody, &wire) == nil {
			apiErr.Message = strings.TrimSpace(wire.Message)
		}
		c.logger.Warn("barberq API non-2xx response", "status", resp.StatusCode, "path", req.URL.Path, "message", apiErr.Message)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// UserMessage turns a booking error into the text shown to the customer.
// API messages pass through; everything else collapses to the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MessageBookingFailed
	}
	var tokErr *TokenError
	if errors.As(err, &tokErr) {
		return tokErr.Message
	}
	return MessageGeneric
}

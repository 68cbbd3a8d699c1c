package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"eventhive/internal/status"
	"eventhive/models"
	"eventhive/utils"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Config struct {
	// BaseURL is the base url of the booking backend.
	BaseURL string `json:"baseUrl" mapstructure:"base_url"`

	// Timeout bounds each http call.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Client talks to the booking backend's order and verification
// endpoints. All calls run through a shared circuit breaker.
type Client struct {
	baseURL string

	// hc is the http client.
	hc *http.Client

	// cb guards the backend against hammering a failing upstream.
	cb *utils.CircuitBreaker
}

// RejectionError carries the backend's error payload for a declined
// request. The message is surfaced to the user verbatim.
type RejectionError struct {
	Code    int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("booking backend rejected request (%d): %s", e.Code, e.Message)
}

func (e *RejectionError) Unwrap() error { return status.ErrOrderRejected }

// NewClient creates a new booking backend client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		hc: &http.Client{
			Timeout: timeout,
		},
		cb: utils.NewCircuitBreaker("booking-backend"),
	}
}

// CreateOrder opens a payment order for the purchase. A non-2xx reply
// is returned as a *RejectionError holding the backend's message.
func (c *Client) CreateOrder(ctx context.Context, req *models.PurchaseRequest) (*models.OrderDescriptor, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("createOrder: validate: %w", err)
	}

	var order models.OrderDescriptor
	if err := c.post(ctx, "/bookings/create-order", req, &order); err != nil {
		return nil, fmt.Errorf("createOrder: %w", err)
	}

	return &order, nil
}

type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	BookingID string `json:"booking_id"`
	TestMode  bool   `json:"test_mode,omitempty"`
}

// VerifyPayment asks the backend to validate a captured payment and
// issue the ticket. Any non-2xx reply, regardless of body shape, comes
// back wrapping status.ErrVerificationRejected.
func (c *Client) VerifyPayment(ctx context.Context, capture *models.CaptureResult, bookingID string, testMode bool) (*models.VerificationOutcome, error) {
	req := verifyRequest{
		OrderID:   capture.OrderID,
		PaymentID: capture.PaymentID,
		Signature: capture.Signature,
		BookingID: bookingID,
		TestMode:  testMode,
	}

	var outcome models.VerificationOutcome
	if err := c.post(ctx, "/bookings/verify-payment", &req, &outcome); err != nil {
		return nil, fmt.Errorf("verifyPayment: %w: %v", status.ErrVerificationRejected, err)
	}

	return &outcome, nil
}

// Booking is one row of a user's booking list.
type Booking struct {
	BookingID  string `json:"booking_id"`
	EventID    string `json:"event_id"`
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
}

// ListUserBookings fetches the user's bookings. Used as the best-effort
// refresh after a confirmed purchase.
func (c *Client) ListUserBookings(ctx context.Context, userID string) ([]Booking, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("listUserBookings: url.Parse: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/bookings/user/%s", base.String(), userID), nil)
	if err != nil {
		return nil, fmt.Errorf("listUserBookings: http.NewReq: %w", err)
	}

	result, err := c.cb.Execute(ctx, func() (any, error) {
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("listUserBookings: http.Do: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("listUserBookings: http.StatusCode: %d", resp.StatusCode)
		}

		var bookings []Booking
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&bookings); err != nil {
			return nil, fmt.Errorf("listUserBookings: json.Decode: %w", err)
		}
		return bookings, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]Booking), nil
}

// post sends a JSON body and decodes a 2xx JSON reply into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("url.Parse: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", base.String(), path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.cb.Execute(ctx, func() (any, error) {
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http.Do: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			var reply struct {
				Error string `json:"error"`
			}
			dec := json.NewDecoder(resp.Body)
			if err := dec.Decode(&reply); err != nil || reply.Error == "" {
				reply.Error = http.StatusText(resp.StatusCode)
			}
			return nil, &RejectionError{Code: resp.StatusCode, Message: reply.Error}
		}

		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(out); err != nil {
			return nil, fmt.Errorf("json.Decode: %w", err)
		}
		return nil, nil
	})
	return err
}

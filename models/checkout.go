package models

import (
	"errors"
	"time"
)

// PurchaseRequest is the payload sent to the booking backend to reserve
// tickets and open a payment order. Amount is in minor currency units.
type PurchaseRequest struct {
	UserID     string `json:"user_id"`
	EventID    string `json:"event_id"`
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity"`
	Amount     int64  `json:"amount"`
}

func (r *PurchaseRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.EventID == "" {
		return errors.New("event_id is required")
	}
	if r.TicketType == "" {
		return errors.New("ticket_type is required")
	}
	if r.Quantity < 1 {
		return errors.New("quantity must be >= 1")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	return nil
}

// OrderDescriptor is the backend's answer to create-order. It is owned
// by a single in-flight checkout attempt and never reused.
type OrderDescriptor struct {
	OrderID   string `json:"order_id"`
	BookingID string `json:"booking_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Key       string `json:"key"`
	TestMode  bool   `json:"test_mode"`
}

// CaptureResult carries the provider's capture identifiers into
// verification. Simulated captures use a synthetic payment id and a
// placeholder signature.
type CaptureResult struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Simulated bool   `json:"-"`
}

// VerificationOutcome is the verify-payment response.
type VerificationOutcome struct {
	Status    string `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
	Email     string `json:"email,omitempty"` // sent, failed
}

const (
	VerificationSuccess = "success"

	EmailSent   = "sent"
	EmailFailed = "failed"
)

// Outcome is the terminal classification of one checkout attempt.
type Outcome string

const (
	OutcomeUnauthenticated    Outcome = "unauthenticated"
	OutcomeOrderRejected      Outcome = "order_rejected"
	OutcomeCancelled          Outcome = "cancelled"
	OutcomePendingCapture     Outcome = "pending_capture"
	OutcomeCaptureTimeout     Outcome = "capture_timeout"
	OutcomeVerificationFailed Outcome = "verification_failed"
	OutcomeConfirmed          Outcome = "confirmed"
	OutcomeConfirmedNoEmail   Outcome = "confirmed_email_failed"
)

// Success reports whether payment was confirmed, regardless of email
// delivery.
func (o Outcome) Success() bool {
	return o == OutcomeConfirmed || o == OutcomeConfirmedNoEmail
}

// CheckoutResult is what one attempt resolves to. Pending results are
// returned for the real-capture branch while the provider callback is
// still outstanding; the terminal result is then delivered through the
// notifier.
type CheckoutResult struct {
	Outcome   Outcome   `json:"outcome"`
	Message   string    `json:"message"`
	Redirect  string    `json:"redirect,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	BookingID string    `json:"booking_id,omitempty"`
	At        time.Time `json:"at"`
}

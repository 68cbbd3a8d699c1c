package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"eventhive/internal/status"
	"eventhive/models"
	"fmt"
)

// PlaceholderSignature is the fixed signature attached to simulated
// captures, matching what the backend accepts in test mode.
const PlaceholderSignature = "test_signature"

// Simulated is the test-mode capture provider. Instead of opening a
// provider surface it asks a DecisionSource for accept/decline and
// synthesizes the capture identifiers locally. Verification and ticket
// email stay real downstream.
type Simulated struct {
	// decisions answers when the request carries no decision source
	// of its own.
	decisions DecisionSource
}

// NewSimulated creates the simulated provider. The fallback decision
// source may be nil, in which case a request without its own source is
// treated as a decline.
func NewSimulated(fallback DecisionSource) *Simulated {
	return &Simulated{decisions: fallback}
}

func (s *Simulated) GetProvider() Provider { return ProviderSimulated }

func (s *Simulated) OpenCheckout(ctx context.Context, req *CheckoutRequest) (<-chan *models.CaptureResult, error) {
	decide := req.Decide
	if decide == nil {
		decide = s.decisions
	}

	accepted := false
	if decide != nil {
		var err error
		accepted, err = decide.Decide(ctx, req.Order)
		if err != nil {
			return nil, fmt.Errorf("simulated capture: decide: %w", err)
		}
	}

	if !accepted {
		return nil, status.ErrUserCancelled
	}

	capture := &models.CaptureResult{
		OrderID:   req.Order.OrderID,
		PaymentID: fmt.Sprintf("test_pay_%s", req.Order.BookingID),
		Signature: PlaceholderSignature,
		Simulated: true,
	}

	ch := make(chan *models.CaptureResult, 1)
	ch <- capture
	close(ch)
	return ch, nil
}

func (s *Simulated) Close(ctx context.Context) error { return nil }

// TestSignature computes the HMAC-SHA256 signature the backend derives
// for test captures, for parity checks against simulated results.
func TestSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

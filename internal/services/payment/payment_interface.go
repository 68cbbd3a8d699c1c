package payment

import (
	"context"
	"eventhive/models"

	"github.com/shopspring/decimal"
)

// Provider identifies a capture provider implementation.
type Provider string

const (
	ProviderRazorpay  Provider = "razorpay"
	ProviderSimulated Provider = "simulated"
)

// Prefill carries the contact fields handed to the provider's checkout
// surface, sourced from the current session.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// CheckoutRequest is one capture attempt against a provider.
type CheckoutRequest struct {
	Order       *models.OrderDescriptor `json:"order"`
	Amount      decimal.Decimal         `json:"amount"`
	DisplayName string                  `json:"display_name"`
	Description string                  `json:"description"`
	Prefill     Prefill                 `json:"prefill"`
	Theme       string                  `json:"theme,omitempty"`

	// Decide stands in for the widget's accept/decline interaction.
	// Only the simulated provider consults it.
	Decide DecisionSource `json:"-"`
}

// DecisionSource yields the user's accept (true) or decline (false)
// for a simulated capture.
type DecisionSource interface {
	Decide(ctx context.Context, order *models.OrderDescriptor) (bool, error)
}

// DecisionFunc adapts a function to DecisionSource.
type DecisionFunc func(ctx context.Context, order *models.OrderDescriptor) (bool, error)

func (f DecisionFunc) Decide(ctx context.Context, order *models.OrderDescriptor) (bool, error) {
	return f(ctx, order)
}

// Static returns a DecisionSource with a fixed answer.
func Static(accept bool) DecisionSource {
	return DecisionFunc(func(context.Context, *models.OrderDescriptor) (bool, error) {
		return accept, nil
	})
}

// CaptureProvider is the common interface for payment capture
// implementations.
type CaptureProvider interface {
	// GetProvider returns the provider type.
	GetProvider() Provider

	// OpenCheckout starts a capture attempt. The returned channel
	// yields at most one CaptureResult; a user who abandons the
	// provider surface never sends on it. A simulated decline is
	// reported as status.ErrUserCancelled.
	OpenCheckout(ctx context.Context, req *CheckoutRequest) (<-chan *models.CaptureResult, error)

	// Close gracefully closes any provider connections.
	Close(ctx context.Context) error
}

package payment

import (
	"context"
	"eventhive/models"
	"fmt"
)

// Registry holds the configured capture providers and picks one per
// order. Selection is driven solely by the order's test_mode flag.
type Registry struct {
	providers map[Provider]CaptureProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[Provider]CaptureProvider),
	}
}

// Register adds a provider instance.
func (r *Registry) Register(p CaptureProvider) {
	r.providers[p.GetProvider()] = p
}

// ForOrder returns the provider for the order: the simulated provider
// when test_mode is set, the real one otherwise.
func (r *Registry) ForOrder(order *models.OrderDescriptor) (CaptureProvider, error) {
	name := ProviderRazorpay
	if order.TestMode {
		name = ProviderSimulated
	}

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("capture provider %s not registered", name)
	}
	return p, nil
}

// Available returns the registered provider types.
func (r *Registry) Available() []Provider {
	names := make([]Provider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Close gracefully closes all registered providers.
func (r *Registry) Close(ctx context.Context) error {
	for name, p := range r.providers {
		if err := p.Close(ctx); err != nil {
			return fmt.Errorf("closing %s provider: %w", name, err)
		}
	}
	return nil
}

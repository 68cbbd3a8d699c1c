package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type ClientConfig struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	KeyID     string `json:"keyId" mapstructure:"key_id"`
	KeySecret string `json:"keySecret" mapstructure:"key_secret"`
}

type Client struct {
	// baseURL is the base url of the Razorpay API.
	baseURL string

	// keyID and keySecret authenticate every call (basic auth).
	keyID     string
	keySecret string

	// hc is the http client.
	hc *http.Client
}

// newClient creates a new Razorpay API client.
func newClient(_ context.Context, c *ClientConfig) *Client {
	return &Client{
		baseURL:   c.BaseURL,
		keyID:     c.KeyID,
		keySecret: c.KeySecret,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type checkoutSessionForm struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	ReferenceID string `json:"reference_id,omitempty"`
	Description string `json:"description"`
	Customer    struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Contact string `json:"contact"`
	} `json:"customer"`
	Notify struct {
		SMS   bool `json:"sms"`
		Email bool `json:"email"`
	} `json:"notify"`
	Theme struct {
		Color string `json:"color,omitempty"`
	} `json:"theme"`
	Notes map[string]string `json:"notes,omitempty"`
}

// createCheckoutSession registers a hosted checkout for the order and
// returns the short url the customer completes payment on.
func (c *Client) createCheckoutSession(ctx context.Context, f *checkoutSessionForm) (string, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("createCheckoutSession: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/v1/payment_links"), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("createCheckoutSession: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("createCheckoutSession: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var reply struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&reply); err != nil {
			return "", fmt.Errorf("createCheckoutSession: http.StatusCode: %d", resp.StatusCode)
		}
		return "", fmt.Errorf("createCheckoutSession: %s", reply.Error.Description)
	}

	var reply struct {
		ID       string `json:"id"`
		ShortURL string `json:"short_url"`
		Status   string `json:"status"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", fmt.Errorf("createCheckoutSession: json.Decode: %w", err)
	}

	return reply.ShortURL, nil
}

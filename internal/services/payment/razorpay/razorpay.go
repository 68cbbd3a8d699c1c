package razorpay

import (
	"context"
	"encoding/json"
	"eventhive/internal/services/payment"
	"eventhive/models"
	"eventhive/utils"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	pubnub "github.com/pubnub/go/v7"
)

type Config struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	KeyID     string `json:"keyId" mapstructure:"key_id"`
	KeySecret string `json:"keySecret" mapstructure:"key_secret"`
	Theme     string `json:"theme" mapstructure:"theme"`

	PNSubKey    string `json:"pn_subkey" mapstructure:"pn_subkey"`
	PNSubSecret string `json:"pn_subsecret" mapstructure:"pn_subsecret"`
	PNUUID      string `json:"pn_uuid" mapstructure:"pn_uuid"`
	PNCipherKey string `json:"pn_cipherKey" mapstructure:"pn_cipherkey"`
}

// Gateway is the real capture provider. Opening a checkout creates a
// hosted payment session; the capture completion arrives as a message
// on a per-order PubNub channel and is delivered at most once to the
// attempt that registered it. An abandoned checkout never resumes.
type Gateway struct {
	theme string

	pnSubKey    string
	pnSubSecret string
	pnUUID      string
	pnCipherKey string

	sub *subscribe

	client *Client

	// mu guards pending.
	mu sync.Mutex

	// pending maps order ids to their waiting capture channel.
	pending map[string]chan *models.CaptureResult
}

// New returns a new Gateway instance.
func New(ctx context.Context, cfg *Config) (*Gateway, error) {
	client := newClient(ctx, &ClientConfig{
		BaseURL:   cfg.BaseURL,
		KeyID:     cfg.KeyID,
		KeySecret: cfg.KeySecret,
	})

	g := &Gateway{
		theme: cfg.Theme,

		pnSubKey:    cfg.PNSubKey,
		pnSubSecret: cfg.PNSubSecret,
		pnUUID:      cfg.PNUUID,
		pnCipherKey: cfg.PNCipherKey,

		client:  client,
		pending: make(map[string]chan *models.CaptureResult),
	}

	// Set the gateway's PubNub config.
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(g.pnUUID))
	pnCfg.SubscribeKey = g.pnSubKey
	pnCfg.CipherKey = g.pnCipherKey
	pnCfg.SecretKey = g.pnSubSecret

	sub, err := g.newSubscription(ctx, pnCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to capture channel: %v", err)
	}

	sub.pn.AddListener(sub.lis)
	g.sub = sub

	return g, nil
}

func (g *Gateway) GetProvider() payment.Provider { return payment.ProviderRazorpay }

func (g *Gateway) OpenCheckout(ctx context.Context, req *payment.CheckoutRequest) (<-chan *models.CaptureResult, error) {
	refID, err := utils.GenerateReference(req.Order.BookingID)
	if err != nil {
		return nil, fmt.Errorf("openCheckout: reference: %w", err)
	}

	form := &checkoutSessionForm{
		Amount:      req.Order.Amount,
		Currency:    req.Order.Currency,
		OrderID:     req.Order.OrderID,
		ReferenceID: refID,
		Description: req.Description,
	}
	form.Customer.Name = req.Prefill.Name
	form.Customer.Email = req.Prefill.Email
	form.Customer.Contact = req.Prefill.Contact
	form.Notify.Email = req.Prefill.Email != ""
	form.Notify.SMS = req.Prefill.Contact != ""
	form.Theme.Color = req.Theme
	if form.Theme.Color == "" {
		form.Theme.Color = g.theme
	}
	form.Notes = map[string]string{
		"display_name": req.DisplayName,
		"booking_id":   req.Order.BookingID,
	}

	shortURL, err := g.client.createCheckoutSession(ctx, form)
	if err != nil {
		return nil, err
	}

	ch := make(chan *models.CaptureResult, 1)

	g.mu.Lock()
	g.pending[req.Order.OrderID] = ch
	g.mu.Unlock()

	g.addChannel(ctx, req.Order.OrderID)

	log.Printf("razorpay: checkout session open for order %s: %s", req.Order.OrderID, shortURL)

	return ch, nil
}

// Close unsubscribes from all capture channels.
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	orders := make([]string, 0, len(g.pending))
	for orderID := range g.pending {
		orders = append(orders, orderID)
	}
	g.pending = make(map[string]chan *models.CaptureResult)
	g.mu.Unlock()

	for _, orderID := range orders {
		g.sub.pn.Unsubscribe().Channels([]string{captureChannel(orderID)}).Execute()
	}
	g.sub.pn.UnsubscribeAll()
	return nil
}

type subscribe struct {
	pn  *pubnub.PubNub
	lis *pubnub.Listener
}

func (g *Gateway) newSubscription(ctx context.Context, pnCfg *pubnub.Config) (*subscribe, error) {
	sub := &subscribe{
		pn:  pubnub.NewPubNub(pnCfg),
		lis: pubnub.NewListener(),
	}

	go g.processSubscription(ctx, sub)

	return sub, nil
}

func (g *Gateway) processSubscription(ctx context.Context, sub *subscribe) {
	listener := sub.lis
	for {
		select {
		case status := <-listener.Status:
			switch status.Category {
			case pubnub.PNConnectedCategory:
				log.Println("connected to pubnub")

			case pubnub.PNReconnectedCategory:
				log.Println("reconnected to pubnub")

			case pubnub.PNDisconnectedCategory:
				log.Println("disconnected from pubnub")

			case pubnub.PNAccessDeniedCategory:
				log.Println("access denied connect to pubnub")

			case pubnub.PNTimeoutCategory:
				log.Println("timeout connect to pubnub")

			default:
				log.Println("pubnub status category:", status.Category)
			}

		case message := <-listener.Message:
			log.Println("capture message received pubnub:", message.Channel)

			var p capturePayload
			raw, ok := message.Message.(string)
			if !ok {
				data, err := json.Marshal(message.Message)
				if err != nil {
					log.Println(err)
					continue
				}
				raw = string(data)
			}

			dec := json.NewDecoder(strings.NewReader(raw))
			if err := dec.Decode(&p); err != nil {
				log.Println(err)
				continue
			}

			g.resolve(p.ToDomain())

		case <-ctx.Done():
			log.Println("close capture subscribe")
			return
		}
	}
}

// resolve hands the capture to the attempt waiting on it, exactly once.
func (g *Gateway) resolve(capture *models.CaptureResult) {
	g.mu.Lock()
	ch, ok := g.pending[capture.OrderID]
	if ok {
		delete(g.pending, capture.OrderID)
	}
	g.mu.Unlock()

	if !ok {
		log.Printf("razorpay: no pending checkout for order %s", capture.OrderID)
		return
	}

	ch <- capture
	close(ch)

	g.sub.pn.Unsubscribe().Channels([]string{captureChannel(capture.OrderID)}).Execute()
}

func (g *Gateway) addChannel(_ context.Context, orderID string) {
	// Get last 2 minutes timetoken.
	tt := time.Now().Add(time.Duration(-2*time.Minute)).Unix() * 10000

	g.sub.pn.Subscribe().Channels([]string{captureChannel(orderID)}).Timetoken(tt).Execute()
}

func captureChannel(orderID string) string {
	return fmt.Sprintf("capture_%s", orderID)
}

type capturePayload struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (p *capturePayload) ToDomain() *models.CaptureResult {
	return &models.CaptureResult{
		OrderID:   p.OrderID,
		PaymentID: p.PaymentID,
		Signature: p.Signature,
	}
}

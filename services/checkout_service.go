package services

import (
	"context"
	"errors"
	"eventhive/internal/services/bookingapi"
	"eventhive/internal/services/payment"
	"eventhive/internal/status"
	"eventhive/models"
	"eventhive/monitoring"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// User-facing outcome messages. Full and partial success stay distinct
// so a confirmed payment with a failed ticket email is never reported
// as a plain success.
const (
	MsgLoginRequired  = "Please login first."
	MsgPaymentSuccess = "Payment successful! Ticket sent to your email."
	MsgPaymentNoEmail = "Payment successful! But email sending failed."
	MsgPaymentFailed  = "Payment failed or signature invalid."
	MsgCancelled      = "Payment was cancelled by user."
	MsgCapturePending = "Complete the payment with your provider to finish the purchase."
)

// BookingAPI is the slice of the booking backend the flow needs.
type BookingAPI interface {
	CreateOrder(ctx context.Context, req *models.PurchaseRequest) (*models.OrderDescriptor, error)
	VerifyPayment(ctx context.Context, capture *models.CaptureResult, bookingID string, testMode bool) (*models.VerificationOutcome, error)
}

// Notifier delivers the terminal outcome to the user's channel.
// Best-effort; a nil Notifier is skipped.
type Notifier interface {
	NotifyOutcome(ctx context.Context, userID string, result *models.CheckoutResult)
}

// BookingRefresher re-reads the user's booking list after a confirmed
// purchase. Optional; absence is not an error.
type BookingRefresher interface {
	RefreshBookings(ctx context.Context, userID string) error
}

// CheckoutConfig carries the purchase defaults and flow policy. The
// ticket defaults mirror the original purchase policy but are
// configuration, not law.
type CheckoutConfig struct {
	TicketType  string
	Quantity    int
	Amount      int64
	DisplayName string
	Theme       string
	LoginPath   string
	TicketsPath string

	// CaptureTimeout bounds the wait for the real provider's
	// completion callback. Zero waits forever.
	CaptureTimeout time.Duration
}

// CheckoutService drives a purchase from intent to a confirmed or
// declined outcome: order creation, capture (real or simulated),
// server-side verification, then user feedback and navigation.
type CheckoutService struct {
	cfg       CheckoutConfig
	api       BookingAPI
	providers *payment.Registry
	notifier  Notifier
	refresher BookingRefresher
	monitor   *monitoring.Monitor
}

func NewCheckoutService(cfg CheckoutConfig, api BookingAPI, providers *payment.Registry, notifier Notifier, refresher BookingRefresher) *CheckoutService {
	return &CheckoutService{
		cfg:       cfg,
		api:       api,
		providers: providers,
		notifier:  notifier,
		refresher: refresher,
		monitor:   monitoring.NewMonitor(),
	}
}

// Checkout runs one purchase attempt for the event. The returned
// result is terminal except for the real-capture branch, which answers
// with a pending result immediately and resumes in the background when
// the provider reports the capture; the terminal outcome then goes out
// through the notifier. The decision source stands in for the payment
// widget's accept/decline and is consulted only in test mode.
func (s *CheckoutService) Checkout(ctx context.Context, sess models.Session, eventID string, decide payment.DecisionSource) (*models.CheckoutResult, error) {
	start := time.Now()

	if !sess.Authenticated() {
		s.monitor.TrackStage("session", "missing")
		res := s.terminal(sess.UserID, models.OutcomeUnauthenticated, MsgLoginRequired, s.cfg.LoginPath, nil, false, start)
		return res, status.ErrUnauthenticated
	}

	req := &models.PurchaseRequest{
		UserID:     sess.UserID,
		EventID:    eventID,
		TicketType: s.cfg.TicketType,
		Quantity:   s.cfg.Quantity,
		Amount:     s.cfg.Amount,
	}

	s.monitor.TrackStage("order", "requested")
	order, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		s.monitor.TrackStage("order", "rejected")
		msg := MsgPaymentFailed
		var rej *bookingapi.RejectionError
		if errors.As(err, &rej) {
			msg = rej.Message
		}
		res := s.terminal(sess.UserID, models.OutcomeOrderRejected, msg, "", nil, false, start)
		return res, fmt.Errorf("checkout: %w", err)
	}
	s.monitor.TrackStage("order", "created")

	provider, err := s.providers.ForOrder(order)
	if err != nil {
		res := s.terminal(sess.UserID, models.OutcomeVerificationFailed, MsgPaymentFailed, "", order, order.TestMode, start)
		return res, fmt.Errorf("checkout: %w", err)
	}

	preq := &payment.CheckoutRequest{
		Order:       order,
		Amount:      decimal.NewFromInt(order.Amount),
		DisplayName: s.cfg.DisplayName,
		Description: fmt.Sprintf("Tickets for Event ID %s", eventID),
		Prefill: payment.Prefill{
			Name:    sess.Name,
			Email:   sess.Email,
			Contact: sess.Phone,
		},
		Theme:  s.cfg.Theme,
		Decide: decide,
	}

	captureCh, err := provider.OpenCheckout(ctx, preq)
	if err != nil {
		if errors.Is(err, status.ErrUserCancelled) {
			s.monitor.TrackStage("capture", "cancelled")
			res := s.terminal(sess.UserID, models.OutcomeCancelled, MsgCancelled, "", order, order.TestMode, start)
			return res, nil
		}
		s.monitor.TrackStage("capture", "failed")
		res := s.terminal(sess.UserID, models.OutcomeVerificationFailed, MsgPaymentFailed, "", order, order.TestMode, start)
		return res, fmt.Errorf("checkout: open capture: %w", err)
	}

	if order.TestMode {
		// The simulated capture is already settled.
		capture := <-captureCh
		s.monitor.TrackStage("capture", "simulated")
		return s.finish(ctx, sess, order, capture, start), nil
	}

	// Real capture: the flow suspends here, not the caller. The
	// background continuation resumes on the provider callback and
	// reports through the notifier.
	s.monitor.TrackStage("capture", "awaiting")
	s.monitor.TrackPendingCapture(1)
	go s.awaitCapture(sess, order, captureCh, start)

	return &models.CheckoutResult{
		Outcome:   models.OutcomePendingCapture,
		Message:   MsgCapturePending,
		OrderID:   order.OrderID,
		BookingID: order.BookingID,
		At:        time.Now(),
	}, nil
}

// awaitCapture blocks until the provider callback or the capture
// timeout. It runs detached from the initiating request.
func (s *CheckoutService) awaitCapture(sess models.Session, order *models.OrderDescriptor, captureCh <-chan *models.CaptureResult, start time.Time) {
	defer s.monitor.TrackPendingCapture(-1)

	ctx := context.Background()

	var timeout <-chan time.Time
	if s.cfg.CaptureTimeout > 0 {
		timer := time.NewTimer(s.cfg.CaptureTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case capture, ok := <-captureCh:
		if !ok {
			log.Printf("checkout: capture channel closed for order %s", order.OrderID)
			return
		}
		s.monitor.TrackStage("capture", "completed")
		s.finish(ctx, sess, order, capture, start)

	case <-timeout:
		log.Printf("checkout: capture timed out for order %s", order.OrderID)
		s.monitor.TrackStage("capture", "timeout")
		s.terminal(sess.UserID, models.OutcomeCaptureTimeout, MsgPaymentFailed, "", order, order.TestMode, start)
	}
}

// finish runs the verification step and maps its reply to the terminal
// result. Reached from either capture branch.
func (s *CheckoutService) finish(ctx context.Context, sess models.Session, order *models.OrderDescriptor, capture *models.CaptureResult, start time.Time) *models.CheckoutResult {
	s.monitor.TrackStage("verification", "requested")

	outcome, err := s.api.VerifyPayment(ctx, capture, order.BookingID, order.TestMode)
	if err != nil || outcome.Status != models.VerificationSuccess {
		if err != nil {
			log.Printf("checkout: verification failed for booking %s: %v", order.BookingID, err)
		}
		s.monitor.TrackStage("verification", "failed")
		return s.terminal(sess.UserID, models.OutcomeVerificationFailed, MsgPaymentFailed, "", order, order.TestMode, start)
	}
	s.monitor.TrackStage("verification", "success")

	result := models.OutcomeConfirmed
	msg := MsgPaymentSuccess
	if outcome.Email != models.EmailSent {
		result = models.OutcomeConfirmedNoEmail
		msg = MsgPaymentNoEmail
	}

	// Best-effort booking list refresh; absence or failure of the
	// hook does not affect the outcome.
	if s.refresher != nil {
		if err := s.refresher.RefreshBookings(ctx, sess.UserID); err != nil {
			log.Printf("checkout: booking refresh failed for user %s: %v", sess.UserID, err)
		}
	}

	return s.terminal(sess.UserID, result, msg, s.cfg.TicketsPath, order, order.TestMode, start)
}

// terminal builds a terminal result, records metrics and notifies the
// user's channel.
func (s *CheckoutService) terminal(userID string, outcome models.Outcome, msg, redirect string, order *models.OrderDescriptor, testMode bool, start time.Time) *models.CheckoutResult {
	res := &models.CheckoutResult{
		Outcome:  outcome,
		Message:  msg,
		Redirect: redirect,
		At:       time.Now(),
	}
	if order != nil {
		res.OrderID = order.OrderID
		res.BookingID = order.BookingID
	}

	s.monitor.TrackOutcome(string(outcome), testMode, time.Since(start))

	if s.notifier != nil && userID != "" && order != nil {
		s.notifier.NotifyOutcome(context.Background(), userID, res)
	}

	return res
}

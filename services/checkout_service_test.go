package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eventhive/internal/services/bookingapi"
	"eventhive/internal/services/payment"
	"eventhive/internal/status"
	"eventhive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock booking backend for CheckoutService tests
type MockBookingAPI struct {
	mock.Mock
}

func (m *MockBookingAPI) CreateOrder(ctx context.Context, req *models.PurchaseRequest) (*models.OrderDescriptor, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderDescriptor), args.Error(1)
}

func (m *MockBookingAPI) VerifyPayment(ctx context.Context, capture *models.CaptureResult, bookingID string, testMode bool) (*models.VerificationOutcome, error) {
	args := m.Called(ctx, capture, bookingID, testMode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationOutcome), args.Error(1)
}

// fakeRealProvider stands in for the razorpay gateway: it hands back a
// channel the test resolves (or never resolves) by hand.
type fakeRealProvider struct {
	mu     sync.Mutex
	ch     chan *models.CaptureResult
	opened []*payment.CheckoutRequest
	err    error
}

func newFakeRealProvider() *fakeRealProvider {
	return &fakeRealProvider{ch: make(chan *models.CaptureResult, 1)}
}

func (f *fakeRealProvider) GetProvider() payment.Provider { return payment.ProviderRazorpay }

func (f *fakeRealProvider) OpenCheckout(ctx context.Context, req *payment.CheckoutRequest) (<-chan *models.CaptureResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.opened = append(f.opened, req)
	return f.ch, nil
}

func (f *fakeRealProvider) Close(ctx context.Context) error { return nil }

func (f *fakeRealProvider) openedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

// recordingNotifier captures terminal results pushed to the user.
type recordingNotifier struct {
	mu      sync.Mutex
	results []*models.CheckoutResult
	users   []string
}

func (n *recordingNotifier) NotifyOutcome(_ context.Context, userID string, result *models.CheckoutResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	n.results = append(n.results, result)
}

func (n *recordingNotifier) last() *models.CheckoutResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.results) == 0 {
		return nil
	}
	return n.results[len(n.results)-1]
}

type recordingRefresher struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (r *recordingRefresher) RefreshBookings(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return r.err
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func testConfig() CheckoutConfig {
	return CheckoutConfig{
		TicketType:  "General",
		Quantity:    1,
		Amount:      500,
		DisplayName: "EventHive",
		LoginPath:   "/login.html",
		TicketsPath: "/tickets.html",
	}
}

func testSession() models.Session {
	return models.Session{
		UserID: "user-1",
		Name:   "Test User",
		Email:  "user@example.com",
		Phone:  "5550001",
	}
}

func testOrder(testMode bool) *models.OrderDescriptor {
	return &models.OrderDescriptor{
		OrderID:   "order_abc",
		BookingID: "42",
		Amount:    500,
		Currency:  "INR",
		Key:       "key_xyz",
		TestMode:  testMode,
	}
}

func setupCheckout(t *testing.T, cfg CheckoutConfig) (*CheckoutService, *MockBookingAPI, *fakeRealProvider, *recordingNotifier, *recordingRefresher) {
	t.Helper()

	api := &MockBookingAPI{}
	real := newFakeRealProvider()
	notifier := &recordingNotifier{}
	refresher := &recordingRefresher{}

	providers := payment.NewRegistry()
	providers.Register(payment.NewSimulated(nil))
	providers.Register(real)

	svc := NewCheckoutService(cfg, api, providers, notifier, refresher)
	return svc, api, real, notifier, refresher
}

func TestCheckout_MissingSession(t *testing.T) {
	svc, api, real, _, _ := setupCheckout(t, testConfig())

	res, err := svc.Checkout(context.Background(), models.Session{}, "7", nil)

	require.ErrorIs(t, err, status.ErrUnauthenticated)
	assert.Equal(t, models.OutcomeUnauthenticated, res.Outcome)
	assert.Equal(t, "/login.html", res.Redirect)

	// no network call of any kind
	api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, real.openedCount())
}

func TestCheckout_OrderRejected_MessageVerbatim(t *testing.T) {
	svc, api, _, _, _ := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &bookingapi.RejectionError{Code: 400, Message: "Invalid user or event"})

	res, err := svc.Checkout(context.Background(), testSession(), "7", nil)

	require.ErrorIs(t, err, status.ErrOrderRejected)
	assert.Equal(t, models.OutcomeOrderRejected, res.Outcome)
	assert.Equal(t, "Invalid user or event", res.Message)
	assert.Empty(t, res.Redirect)

	api.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_UsesConfiguredPurchaseDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.TicketType = "VIP"
	cfg.Quantity = 2
	cfg.Amount = 1200
	svc, api, _, _, _ := setupCheckout(t, cfg)

	api.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req *models.PurchaseRequest) bool {
		return req.UserID == "user-1" && req.EventID == "7" &&
			req.TicketType == "VIP" && req.Quantity == 2 && req.Amount == 1200
	})).Return(nil, &bookingapi.RejectionError{Code: 400, Message: "nope"})

	_, _ = svc.Checkout(context.Background(), testSession(), "7", nil)

	api.AssertExpectations(t)
}

func TestCheckout_Simulated_Declined(t *testing.T) {
	svc, api, real, _, refresher := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(true), nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(false))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCancelled, res.Outcome)
	assert.Equal(t, MsgCancelled, res.Message)
	assert.Empty(t, res.Redirect)

	api.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, real.openedCount())
	assert.Zero(t, refresher.count())
}

func TestCheckout_Simulated_Accepted_FullSuccess(t *testing.T) {
	svc, api, real, _, refresher := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(true), nil)
	api.On("VerifyPayment", mock.Anything, mock.MatchedBy(func(c *models.CaptureResult) bool {
		return c.Simulated && c.OrderID == "order_abc" &&
			c.PaymentID == "test_pay_42" && c.Signature == payment.PlaceholderSignature
	}), "42", true).
		Return(&models.VerificationOutcome{Status: models.VerificationSuccess, Email: models.EmailSent}, nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(true))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConfirmed, res.Outcome)
	assert.Equal(t, MsgPaymentSuccess, res.Message)
	assert.Equal(t, "/tickets.html", res.Redirect)

	// test mode never touches the real provider
	assert.Zero(t, real.openedCount())
	assert.Equal(t, 1, refresher.count())
	api.AssertExpectations(t)
}

func TestCheckout_Simulated_EmailFailed_PartialSuccess(t *testing.T) {
	svc, api, _, _, refresher := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(true), nil)
	api.On("VerifyPayment", mock.Anything, mock.Anything, "42", true).
		Return(&models.VerificationOutcome{Status: models.VerificationSuccess, Email: models.EmailFailed}, nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(true))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConfirmedNoEmail, res.Outcome)
	assert.Equal(t, MsgPaymentNoEmail, res.Message)
	assert.NotEqual(t, MsgPaymentSuccess, res.Message)

	// payment is confirmed, so navigation and refresh still happen
	assert.Equal(t, "/tickets.html", res.Redirect)
	assert.Equal(t, 1, refresher.count())
}

func TestCheckout_VerificationNonSuccess(t *testing.T) {
	svc, api, _, _, refresher := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(true), nil)
	api.On("VerifyPayment", mock.Anything, mock.Anything, "42", true).
		Return(&models.VerificationOutcome{Status: "failed"}, nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(true))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeVerificationFailed, res.Outcome)
	assert.Equal(t, MsgPaymentFailed, res.Message)
	assert.Empty(t, res.Redirect)
	assert.Zero(t, refresher.count())
}

func TestCheckout_VerificationTransportFailure(t *testing.T) {
	svc, api, _, _, _ := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(true), nil)
	api.On("VerifyPayment", mock.Anything, mock.Anything, "42", true).
		Return(nil, errors.New("connection refused"))

	res, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(true))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeVerificationFailed, res.Outcome)
	assert.Empty(t, res.Redirect)
}

func TestCheckout_NilRefresher_SkippedSilently(t *testing.T) {
	api := &MockBookingAPI{}
	providers := payment.NewRegistry()
	providers.Register(payment.NewSimulated(nil))

	svc := NewCheckoutService(testConfig(), api, providers, nil, nil)

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(true), nil)
	api.On("VerifyPayment", mock.Anything, mock.Anything, "42", true).
		Return(&models.VerificationOutcome{Status: models.VerificationSuccess, Email: models.EmailSent}, nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(true))

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConfirmed, res.Outcome)
	assert.Equal(t, "/tickets.html", res.Redirect)
}

func TestCheckout_Real_PendingThenConfirmed(t *testing.T) {
	svc, api, real, notifier, refresher := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(false), nil)
	api.On("VerifyPayment", mock.Anything, mock.MatchedBy(func(c *models.CaptureResult) bool {
		return c.OrderID == "order_abc" && c.PaymentID == "pay_live_1" && c.Signature == "sig_live"
	}), "42", false).
		Return(&models.VerificationOutcome{Status: models.VerificationSuccess, Email: models.EmailSent}, nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", nil)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomePendingCapture, res.Outcome)
	assert.Equal(t, 1, real.openedCount())

	// prefill comes from the session
	opened := real.opened[0]
	assert.Equal(t, "Test User", opened.Prefill.Name)
	assert.Equal(t, "user@example.com", opened.Prefill.Email)
	assert.Equal(t, "5550001", opened.Prefill.Contact)

	// provider callback resumes the suspended flow
	real.ch <- &models.CaptureResult{OrderID: "order_abc", PaymentID: "pay_live_1", Signature: "sig_live"}

	require.Eventually(t, func() bool {
		last := notifier.last()
		return last != nil && last.Outcome == models.OutcomeConfirmed
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "/tickets.html", notifier.last().Redirect)
	assert.Equal(t, 1, refresher.count())
	api.AssertExpectations(t)
}

func TestCheckout_Real_CaptureTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.CaptureTimeout = 50 * time.Millisecond
	svc, api, real, notifier, _ := setupCheckout(t, cfg)

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(false), nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", nil)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomePendingCapture, res.Outcome)
	assert.Equal(t, 1, real.openedCount())

	require.Eventually(t, func() bool {
		last := notifier.last()
		return last != nil && last.Outcome == models.OutcomeCaptureTimeout
	}, 2*time.Second, 10*time.Millisecond)

	// nothing captured, so nothing to verify
	api.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_Real_AbandonedStaysSuspended(t *testing.T) {
	// capture timeout disabled: abandonment never resumes the flow
	svc, api, real, notifier, _ := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(false), nil)

	res, err := svc.Checkout(context.Background(), testSession(), "7", nil)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomePendingCapture, res.Outcome)
	assert.Equal(t, 1, real.openedCount())

	time.Sleep(100 * time.Millisecond)
	assert.Nil(t, notifier.last())
	api.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_ReplayedVerification_NoClientDedup(t *testing.T) {
	svc, api, _, _, _ := setupCheckout(t, testConfig())

	api.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(true), nil)
	api.On("VerifyPayment", mock.Anything, mock.Anything, "42", true).
		Return(&models.VerificationOutcome{Status: models.VerificationSuccess, Email: models.EmailSent}, nil)

	first, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(true))
	require.NoError(t, err)
	second, err := svc.Checkout(context.Background(), testSession(), "7", payment.Static(true))
	require.NoError(t, err)

	// two independent outcome reports, one per attempt
	assert.Equal(t, models.OutcomeConfirmed, first.Outcome)
	assert.Equal(t, models.OutcomeConfirmed, second.Outcome)
	api.AssertNumberOfCalls(t, "VerifyPayment", 2)
}

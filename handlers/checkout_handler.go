package handlers

import (
	"net/http"

	"eventhive/internal/services/payment"
	"eventhive/models"
	"eventhive/services"
	"eventhive/utils"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
)

// SessionHeader carries the opaque session id on checkout requests.
const SessionHeader = "X-Session-Id"

type CheckoutHandler struct {
	sessions *services.SessionService
	checkout *services.CheckoutService
	redis    *redis.Client
}

func NewCheckoutHandler(sessions *services.SessionService, checkout *services.CheckoutService, redisClient *redis.Client) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		checkout: checkout,
		redis:    redisClient,
	}
}

type checkoutRequest struct {
	// Confirm is the test-mode accept/decline. Ignored for real
	// captures.
	Confirm *bool `json:"confirm"`
}

// Checkout - run one purchase attempt for the event
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := h.sessions.Load(ctx, c.Request().Header.Get(SessionHeader))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "session lookup failed",
		})
	}

	eventID := c.PathParam("eventId")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "eventId is required",
		})
	}

	var req checkoutRequest
	// The body is optional; real-capture requests send none.
	_ = c.Bind(&req)

	var decide payment.DecisionSource
	if req.Confirm != nil {
		decide = payment.Static(*req.Confirm)
	}

	result, _ := h.checkout.Checkout(ctx, sess, eventID, decide)

	return c.JSON(statusFor(result.Outcome), result)
}

func statusFor(outcome models.Outcome) int {
	switch outcome {
	case models.OutcomeUnauthenticated:
		return http.StatusUnauthorized
	case models.OutcomeOrderRejected:
		return http.StatusBadRequest
	case models.OutcomePendingCapture:
		return http.StatusAccepted
	case models.OutcomeVerificationFailed, models.OutcomeCaptureTimeout:
		return http.StatusPaymentRequired
	default:
		return http.StatusOK
	}
}

// Health - liveness plus redis connectivity
func (h *CheckoutHandler) Health(c echo.Context) error {
	if err := utils.RedisHealthCheck(h.redis); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

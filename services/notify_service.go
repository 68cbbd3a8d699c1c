package services

import (
	"context"
	"eventhive/models"
	"fmt"
	"log"

	pubnub "github.com/pubnub/go"
)

// NotifyService publishes checkout outcomes to the user's channel so
// an open client can react (show the message, follow the redirect).
// Delivery is best-effort.
type NotifyService struct {
	pubnub *pubnub.PubNub
}

func NewNotifyService(pn *pubnub.PubNub) *NotifyService {
	return &NotifyService{pubnub: pn}
}

func (s *NotifyService) NotifyOutcome(_ context.Context, userID string, result *models.CheckoutResult) {
	channel := fmt.Sprintf("user-%s", userID)

	_, _, err := s.pubnub.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":       "checkout_result",
			"outcome":    string(result.Outcome),
			"message":    result.Message,
			"redirect":   result.Redirect,
			"order_id":   result.OrderID,
			"booking_id": result.BookingID,
		}).
		Execute()
	if err != nil {
		log.Printf("notify: publish to %s failed: %v", channel, err)
	}
}

package services

import (
	"context"
	"eventhive/internal/services/bookingapi"
	"fmt"
	"log"

	pubnub "github.com/pubnub/go"
)

// BookingLister is the read side of the booking backend.
type BookingLister interface {
	ListUserBookings(ctx context.Context, userID string) ([]bookingapi.Booking, error)
}

// RefreshService re-reads a user's booking list after a confirmed
// purchase and pushes it to their channel so stale lists update
// without a reload.
type RefreshService struct {
	api    BookingLister
	pubnub *pubnub.PubNub
}

func NewRefreshService(api BookingLister, pn *pubnub.PubNub) *RefreshService {
	return &RefreshService{
		api:    api,
		pubnub: pn,
	}
}

func (s *RefreshService) RefreshBookings(ctx context.Context, userID string) error {
	bookings, err := s.api.ListUserBookings(ctx, userID)
	if err != nil {
		return fmt.Errorf("refresh bookings: %w", err)
	}

	if s.pubnub != nil {
		channel := fmt.Sprintf("user-%s", userID)
		_, _, err := s.pubnub.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":     "bookings_update",
				"bookings": bookings,
			}).
			Execute()
		if err != nil {
			log.Printf("refresh: publish to %s failed: %v", channel, err)
		}
	}

	return nil
}

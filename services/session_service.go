package services

import (
	"context"
	"eventhive/models"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionService reads and writes login sessions in redis. Each
// session is a hash keyed by the opaque session id; the flow only ever
// reads it wholesale into a Session value.
type SessionService struct {
	Redis *redis.Client
	ttl   time.Duration
}

func NewSessionService(redisClient *redis.Client, ttl time.Duration) *SessionService {
	return &SessionService{
		Redis: redisClient,
		ttl:   ttl,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Load returns the session for the id. A missing session comes back as
// a zero Session, not an error; the checkout gate handles it.
func (s *SessionService) Load(ctx context.Context, sessionID string) (models.Session, error) {
	if sessionID == "" {
		return models.Session{}, nil
	}

	data, err := s.Redis.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return models.Session{}, fmt.Errorf("session load: %w", err)
	}

	return models.Session{
		UserID: data["user_id"],
		Name:   data["user_name"],
		Email:  data["user_email"],
		Phone:  data["user_phone"],
	}, nil
}

// Save stores the session hash with the configured TTL.
func (s *SessionService) Save(ctx context.Context, sessionID string, sess models.Session) error {
	key := sessionKey(sessionID)

	fields := map[string]any{
		"user_id":    sess.UserID,
		"user_name":  sess.Name,
		"user_email": sess.Email,
		"user_phone": sess.Phone,
	}
	for k, v := range fields {
		if err := s.Redis.HSet(ctx, key, k, v).Err(); err != nil {
			return fmt.Errorf("session save: %w", err)
		}
	}

	if s.ttl > 0 {
		if err := s.Redis.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("session save: expire: %w", err)
		}
	}

	return nil
}

// Clear removes the session.
func (s *SessionService) Clear(ctx context.Context, sessionID string) error {
	if err := s.Redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

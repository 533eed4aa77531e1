package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ Checker = (*SessionChecker)(nil)

type Checker interface {
	UserID(ctx context.Context, token string) (string, error)
}

// SessionChecker resolves session tokens into user ids.
type SessionChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewSessionChecker(ttl time.Duration, redisClient *redis.Client) *SessionChecker {
	return &SessionChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (c *SessionChecker) UserID(ctx context.Context, token string) (string, error) {
	val, err := c.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}

	session, err := decodeLoginSession(val)
	if err != nil {
		return "", err
	}

	if time.Since(session.CreatedAt) > c.ttl {
		return "", ErrSessionExpired
	}

	return session.UserID, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/rapidfit/pkg"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultResetTokenTTL = time.Hour
	resetKeyPrefix       = "rapidfit-password-reset||"
	resetTokenLength     = 32
)

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// ResetTokens keeps one-time password reset tokens; redis expires them after the TTL.
type ResetTokens struct {
	redisClient    *redis.Client
	ttl            time.Duration
	RandStringFunc func(s int) (string, error)
}

func NewResetTokens(ttl time.Duration, redisClient *redis.Client) *ResetTokens {
	return &ResetTokens{
		redisClient:    redisClient,
		ttl:            ttl,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (rt *ResetTokens) TTL() time.Duration {
	return rt.ttl
}

func (rt *ResetTokens) Issue(ctx context.Context, userID string) (string, error) {
	token, err := rt.RandStringFunc(resetTokenLength)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	if err := rt.redisClient.Set(ctx, resetKeyPrefix+token, userID, rt.ttl).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	return token, nil
}

// Consume returns the user id the token was issued for, and invalidates the token.
func (rt *ResetTokens) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidResetToken
	}

	// GETDEL is atomic, concurrent consumers of one token get it at most once
	userID, err := rt.redisClient.GetDel(ctx, resetKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}

	return userID, nil
}

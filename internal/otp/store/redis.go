package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"credvault/pkg/platform/sentinel"
)

const redisSecretKeyPrefix = "otp:secret:"

// Redis keeps OTP secrets in Redis and lets key TTLs handle expiry, so every
// replica sees the same secret.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Get(ctx context.Context, email string) (string, error) {
	secret, err := s.client.Get(ctx, secretKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("get otp secret: %w", err)
	}
	return secret, nil
}

func (s *Redis) Put(ctx context.Context, email, secret string, ttl time.Duration) error {
	if err := s.client.Set(ctx, secretKey(email), secret, ttl).Err(); err != nil {
		return fmt.Errorf("set otp secret: %w", err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, secretKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp secret: %w", err)
	}
	return nil
}

func secretKey(email string) string {
	return redisSecretKeyPrefix + email
}

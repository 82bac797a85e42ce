package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbook/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	otpKeyPrefix       = "otp:"
	verifiedKeyPrefix  = "otp_verified:"
	rateLimitKeyPrefix = "rate_limit:"
)

func emailKey(prefix, email string) string {
	return prefix + strings.ToLower(strings.TrimSpace(email))
}

// NewRedisClient builds a client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// RedisOTPStore keeps codes as plain keys with a TTL.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

var errNilClient = errors.New("redis client is nil")

func (r *RedisOTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Set(ctx, emailKey(otpKeyPrefix, email), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	return nil
}

func (r *RedisOTPStore) GetOTP(ctx context.Context, email string) (string, error) {
	if r.client == nil {
		return "", errNilClient
	}
	val, err := r.client.Get(ctx, emailKey(otpKeyPrefix, email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get otp: %w", err)
	}
	return val, nil
}

func (r *RedisOTPStore) DeleteOTP(ctx context.Context, email string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, emailKey(otpKeyPrefix, email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

func (r *RedisOTPStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Set(ctx, emailKey(verifiedKeyPrefix, email), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

func (r *RedisOTPStore) IsVerified(ctx context.Context, email string) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	n, err := r.client.Exists(ctx, emailKey(verifiedKeyPrefix, email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check verified email: %w", err)
	}
	return n == 1, nil
}

func (r *RedisOTPStore) ClearVerified(ctx context.Context, email string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, emailKey(verifiedKeyPrefix, email)).Err(); err != nil {
		return fmt.Errorf("failed to clear verified email: %w", err)
	}
	return nil
}

// CheckRateLimit counts calls per key in a fixed window.
func (r *RedisOTPStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	k := rateLimitKeyPrefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= int64(limit), nil
}

package repository

import (
	"context"
	"sync/atomic"
	"time"

	"quickbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverOTPStore uses primary until it fails, then serves from fallback
// and probes primary again once per recoveryInterval.
type FailoverOTPStore struct {
	primary   domain.OTPStore
	fallback  domain.OTPStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverOTPStore(primary, fallback domain.OTPStore, logger *zerolog.Logger) *FailoverOTPStore {
	return &FailoverOTPStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverOTPStore) markDown(op string, err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("primary otp store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverOTPStore) shouldProbe() bool {
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func run[T any](r *FailoverOTPStore, op string, primary, fallback func() (T, error)) (T, error) {
	if !r.isDown.Load() || r.shouldProbe() {
		val, err := primary()
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Str("op", op).Msg("primary otp store recovered")
			}
			return val, nil
		}
		r.markDown(op, err)
	}
	return fallback()
}

func noValue(fn func() error) func() (struct{}, error) {
	return func() (struct{}, error) { return struct{}{}, fn() }
}

func (r *FailoverOTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	_, err := run(r, "save_otp",
		noValue(func() error { return r.primary.SaveOTP(ctx, email, code, ttl) }),
		noValue(func() error { return r.fallback.SaveOTP(ctx, email, code, ttl) }))
	return err
}

func (r *FailoverOTPStore) GetOTP(ctx context.Context, email string) (string, error) {
	return run(r, "get_otp",
		func() (string, error) { return r.primary.GetOTP(ctx, email) },
		func() (string, error) { return r.fallback.GetOTP(ctx, email) })
}

func (r *FailoverOTPStore) DeleteOTP(ctx context.Context, email string) error {
	_, err := run(r, "delete_otp",
		noValue(func() error { return r.primary.DeleteOTP(ctx, email) }),
		noValue(func() error { return r.fallback.DeleteOTP(ctx, email) }))
	return err
}

func (r *FailoverOTPStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	_, err := run(r, "mark_verified",
		noValue(func() error { return r.primary.MarkVerified(ctx, email, ttl) }),
		noValue(func() error { return r.fallback.MarkVerified(ctx, email, ttl) }))
	return err
}

func (r *FailoverOTPStore) IsVerified(ctx context.Context, email string) (bool, error) {
	return run(r, "is_verified",
		func() (bool, error) { return r.primary.IsVerified(ctx, email) },
		func() (bool, error) { return r.fallback.IsVerified(ctx, email) })
}

func (r *FailoverOTPStore) ClearVerified(ctx context.Context, email string) error {
	_, err := run(r, "clear_verified",
		noValue(func() error { return r.primary.ClearVerified(ctx, email) }),
		noValue(func() error { return r.fallback.ClearVerified(ctx, email) }))
	return err
}

func (r *FailoverOTPStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return run(r, "rate_limit",
		func() (bool, error) { return r.primary.CheckRateLimit(ctx, key, limit, window) },
		func() (bool, error) { return r.fallback.CheckRateLimit(ctx, key, limit, window) })
}

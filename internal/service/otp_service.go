package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"quickbook/internal/config"
	"quickbook/internal/domain"
	"quickbook/internal/models"

	"github.com/rs/zerolog"
)

// OTPService issues and verifies signup codes.
type OTPService struct {
	store  domain.OTPStore
	mailer domain.Mailer
	cfg    config.OTPConfig
	logger *zerolog.Logger
	code   func() (string, error)
}

func NewOTPService(store domain.OTPStore, mailer domain.Mailer, cfg config.OTPConfig, logger *zerolog.Logger) *OTPService {
	if cfg.TTL <= 0 {
		cfg.TTL = models.OTPTTL
	}
	if cfg.VerifiedTTL <= 0 {
		cfg.VerifiedTTL = models.OTPVerifiedTTL
	}
	if cfg.RequestLimit <= 0 {
		cfg.RequestLimit = models.OTPRequestLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = models.OTPRequestWindow
	}
	return &OTPService{
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		code:   randomCode,
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", models.OTPLength, n.Int64()), nil
}

// Request sends a fresh code to an allowed company address. A new request
// replaces the previous code.
func (s *OTPService) Request(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	allowed, err := s.store.CheckRateLimit(ctx, "otp:"+email, s.cfg.RequestLimit, s.cfg.Window)
	if err != nil {
		return fmt.Errorf("failed to check otp rate limit: %w", err)
	}
	if !allowed {
		return ErrRateLimited
	}

	code, err := s.code()
	if err != nil {
		return err
	}
	if err := s.store.SaveOTP(ctx, email, code, s.cfg.TTL); err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	if err := s.mailer.SendOTP(ctx, email, code, s.cfg.TTL); err != nil {
		_ = s.store.DeleteOTP(ctx, email)
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	s.logger.Info().Str("email", email).Dur("ttl", s.cfg.TTL).Msg("otp sent")
	return nil
}

// Verify consumes the code and marks the e-mail as verified for signup.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	if code == "" {
		return ErrInvalidOTP
	}

	stored, err := s.store.GetOTP(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to read otp: %w", err)
	}
	if stored == "" || stored != code {
		return ErrInvalidOTP
	}

	if err := s.store.DeleteOTP(ctx, email); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("failed to delete used otp")
	}
	if err := s.store.MarkVerified(ctx, email, s.cfg.VerifiedTTL); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

// TTL is the validity of an issued code.
func (s *OTPService) TTL() time.Duration {
	return s.cfg.TTL
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"quickbook/internal/auth"
	"quickbook/internal/database"
	"quickbook/internal/domain"
	"quickbook/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.UserRepository
	otp    domain.OTPStore
	issuer *auth.Issuer
	logger *zerolog.Logger
}

func NewUserService(repo domain.UserRepository, otp domain.OTPStore, issuer *auth.Issuer, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		otp:    otp,
		issuer: issuer,
		logger: logger,
	}
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address syntax and the allowed company domains.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalidf("invalid email address")
	}
	for _, d := range models.AllowedEmailDomains {
		if strings.HasSuffix(email, "@"+d) {
			return nil
		}
	}
	return invalidf("email domain not allowed, only @%s are accepted", strings.Join(models.AllowedEmailDomains, " or @"))
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < models.MinNameLength || n > models.MaxNameLength {
		return invalidf("name must be between %d and %d characters", models.MinNameLength, models.MaxNameLength)
	}
	return nil
}

// Signup registers an employee whose e-mail passed OTP verification.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < models.MinPasswordLength {
		return nil, invalidf("password must be at least %d characters", models.MinPasswordLength)
	}

	verified, err := s.otp.IsVerified(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check otp verification: %w", err)
	}
	if !verified {
		return nil, ErrEmailNotVerified
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleEmployee}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("email is already in use: %w", err)
		}
		return nil, err
	}

	if err := s.otp.ClearVerified(ctx, email); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("failed to clear otp verification")
	}
	s.logger.Info().Int64("user_id", user.ID).Str("email", email).Msg("user signed up")
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issuer.MakeToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateProfile changes the display name. E-mail and password are immutable here.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUserName(ctx, userID, name); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context, actor Actor) ([]*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, actor Actor, id int64) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) UpdateRole(ctx context.Context, actor Actor, id int64, rawRole string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, invalidf("%s", err.Error())
	}
	if err := s.repo.UpdateUserRole(ctx, id, role); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", id).Str("role", string(role)).Int64("by", actor.UserID).Msg("user role updated")
	return s.repo.GetUserByID(ctx, id)
}

// DeleteUser removes the user with their reservations and feedback.
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == id {
		return invalidf("admins cannot delete their own account")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Int64("by", actor.UserID).Msg("user deleted")
	return nil
}

// PromoteAdmins grants the admin role to the configured e-mails that already
// have accounts. Unknown e-mails are skipped.
func (s *UserService) PromoteAdmins(ctx context.Context, emails []string) (int, error) {
	promoted := 0
	for _, raw := range emails {
		email := NormalizeEmail(raw)
		if email == "" {
			continue
		}
		user, err := s.repo.GetUserByEmail(ctx, email)
		if errors.Is(err, database.ErrNotFound) {
			s.logger.Warn().Str("email", email).Msg("configured admin has no account yet")
			continue
		}
		if err != nil {
			return promoted, err
		}
		if user.IsAdmin() {
			continue
		}
		if err := s.repo.UpdateUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

package service

import (
	"errors"
	"fmt"

	"quickbook/internal/models"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrRateLimited          = errors.New("too many requests, try again later")
	ErrInvalidOTP           = errors.New("invalid or expired otp")
	ErrEmailNotVerified     = errors.New("email not verified, request an otp first")
	ErrRoomUnderMaintenance = errors.New("room is under maintenance")
	ErrNotEditable          = errors.New("only confirmed reservations can be changed")
	ErrFeedbackNotAllowed   = errors.New("feedback is only accepted for completed reservations")
)

// InputError is a rejected request field. It matches ErrValidation.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

func (e *InputError) Is(target error) bool {
	return target == ErrValidation
}

func invalidf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int64
	Role   models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return fmt.Errorf("admin role required: %w", ErrForbidden)
	}
	return nil
}

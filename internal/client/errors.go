package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"quickbook/internal/models"
)

var (
	ErrNetwork      = errors.New("network error")
	ErrTimeout      = errors.New("request timed out")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrServer       = errors.New("server error")

	// ErrSlotUnavailable is a booking overlap refused by the server.
	ErrSlotUnavailable = errors.New("time slot unavailable")
	// ErrConflict is any other 409: duplicates, stale versions, closed
	// reservations.
	ErrConflict = errors.New("conflict")

	// ErrNotCancellable comes back from the server, or is returned without a
	// request for reservations that are not confirmed or have already started.
	ErrNotCancellable = errors.New("reservation can no longer be cancelled")
)

// StatusError keeps the HTTP status, the server's message and its code next
// to the sentinel it maps to.
type StatusError struct {
	Status  int
	Message string
	Code    string
	kind    error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func statusError(status int, message, code string) error {
	var kind error
	switch {
	case status == http.StatusBadRequest:
		kind = ErrBadRequest
	case status == http.StatusUnauthorized:
		kind = ErrUnauthorized
	case status == http.StatusForbidden:
		kind = ErrForbidden
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusConflict:
		kind = conflictKind(code)
	case status >= http.StatusInternalServerError:
		kind = ErrServer
	default:
		kind = ErrBadRequest
	}
	return &StatusError{Status: status, Message: message, Code: code, kind: kind}
}

func conflictKind(code string) error {
	switch code {
	case models.ErrorCodeSlotTaken:
		return ErrSlotUnavailable
	case models.ErrorCodeNotCancellable:
		return ErrNotCancellable
	default:
		return ErrConflict
	}
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbook/internal/models"
)

var (
	ErrInvalidInterval      = errors.New("end time must be after start time")
	ErrOutsideBusinessHours = errors.New("bookings only allowed between 9 AM and 6 PM")
	ErrBelowMinimumDuration = errors.New("minimum booking duration is 15 minutes")
	ErrAboveMaximumDuration = errors.New("maximum booking duration is 9 hours")
	ErrStartInPast          = errors.New("start time must be in the future")
	ErrUnknownAmenity       = errors.New("unknown amenity")
)

// ValidationError names the rule a booking request failed.
type ValidationError struct {
	Rule string
	Err  error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(rule string, err error) error {
	return &ValidationError{Rule: rule, Err: err}
}

// Rules are the booking-window constraints.
type Rules struct {
	OpenHour    int
	CloseHour   int
	MinDuration time.Duration
	MaxDuration time.Duration
	// Location for the business-hours checks; nil means time.Local.
	Location *time.Location
}

// DefaultRules: 09:00-18:00, 15 minutes to 9 hours.
func DefaultRules() Rules {
	return Rules{
		OpenHour:    9,
		CloseHour:   18,
		MinDuration: 15 * time.Minute,
		MaxDuration: 540 * time.Minute,
	}
}

func (r Rules) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Validate runs the checks in order; the first failure is returned.
func (r Rules) Validate(iv Interval) error {
	if iv.Start.IsZero() || iv.End.IsZero() || iv.Empty() {
		return invalid("interval", ErrInvalidInterval)
	}

	start := iv.Start.In(r.loc())
	end := iv.End.In(r.loc())

	if start.Hour() < r.OpenHour {
		return invalid("open_hour", ErrOutsideBusinessHours)
	}
	if !sameDate(start, end) || minutesOfDay(end) > r.CloseHour*60 {
		return invalid("close_hour", ErrOutsideBusinessHours)
	}

	d := iv.Duration()
	if d < r.MinDuration {
		return invalid("min_duration", ErrBelowMinimumDuration)
	}
	if d > r.MaxDuration {
		return invalid("max_duration", ErrAboveMaximumDuration)
	}
	return nil
}

// ValidateFuture is Validate plus a start-after-now check, used by the server.
func (r Rules) ValidateFuture(iv Interval, now time.Time) error {
	if err := r.Validate(iv); err != nil {
		return err
	}
	if !iv.Start.After(now) {
		return invalid("start_in_past", ErrStartInPast)
	}
	return nil
}

func minutesOfDay(t time.Time) int {
	m := t.Hour()*60 + t.Minute()
	if t.Second() > 0 || t.Nanosecond() > 0 {
		m++
	}
	return m
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CanCancel: only confirmed reservations that have not started yet.
func CanCancel(res *models.Reservation, now time.Time) bool {
	return res != nil && res.Status == models.ReservationConfirmed && now.Before(res.StartTime)
}

const amenitySeparator = ", "

// JoinAmenities renders amenity tags the way they are stored on reservations.
func JoinAmenities(tags []models.Amenity) string {
	parts := make([]string, 0, len(tags))
	seen := make(map[models.Amenity]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		parts = append(parts, string(t))
	}
	return strings.Join(parts, amenitySeparator)
}

// ParseAmenities splits a stored amenity list and validates each tag.
func ParseAmenities(raw string) ([]models.Amenity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []models.Amenity
	for _, part := range strings.Split(raw, ",") {
		tag := models.Amenity(strings.ToLower(strings.TrimSpace(part)))
		if tag == "" {
			continue
		}
		if !tag.Valid() {
			return nil, invalid("amenities", fmt.Errorf("%w: %s", ErrUnknownAmenity, tag))
		}
		out = append(out, tag)
	}
	return out, nil
}

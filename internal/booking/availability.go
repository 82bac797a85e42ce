// Package booking holds the availability and booking-window rules shared by
// the server and the REST client.
package booking

import (
	"fmt"
	"time"

	"quickbook/internal/models"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Duration of the interval; negative for inverted ones.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Empty reports a zero-length or inverted interval.
func (iv Interval) Empty() bool {
	return !iv.End.After(iv.Start)
}

// Overlaps: [a,b) and [c,d) overlap iff a < d && c < b.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// ReservationInterval returns the time range a reservation occupies.
func ReservationInterval(r *models.Reservation) Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

// Blocks reports whether the reservation prevents booking req in its room.
// Only confirmed reservations block.
func Blocks(r *models.Reservation, req Interval) bool {
	return r.Status == models.ReservationConfirmed && ReservationInterval(r).Overlaps(req)
}

// Evaluate classifies a room for the requested interval. Maintenance wins over
// any reservation data.
func Evaluate(room *models.Room, req Interval, reservations []*models.Reservation) models.RoomStatus {
	if room.Availability == models.RoomUnderMaintenance {
		return models.StatusRoomUnderMaintenance
	}
	for _, r := range reservations {
		if r == nil || r.RoomID != room.ID {
			continue
		}
		if Blocks(r, req) {
			return models.StatusRoomBooked
		}
	}
	return models.StatusRoomAvailable
}

// RoomAvailability pairs a room with its evaluated status.
type RoomAvailability struct {
	Room   *models.Room      `json:"room"`
	Status models.RoomStatus `json:"status"`
}

// EvaluateAll applies Evaluate to every room, keeping input order.
func EvaluateAll(rooms []*models.Room, req Interval, reservations []*models.Reservation) []RoomAvailability {
	byRoom := make(map[int64][]*models.Reservation)
	for _, r := range reservations {
		if r != nil {
			byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
		}
	}

	out := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomAvailability{
			Room:   room,
			Status: Evaluate(room, req, byRoom[room.ID]),
		})
	}
	return out
}

// ClockLayout is the HH:MM format used for time-of-day inputs.
const ClockLayout = "15:04"

// TodayInterval builds an interval on now's calendar date from two HH:MM clocks.
func TodayInterval(now time.Time, startClock, endClock string, loc *time.Location) (Interval, error) {
	return DayInterval(now, startClock, endClock, loc)
}

// DayInterval builds an interval on day's calendar date from two HH:MM clocks.
func DayInterval(day time.Time, startClock, endClock string, loc *time.Location) (Interval, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := atClock(day.In(loc), startClock)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid start time %q: %w", startClock, err)
	}
	end, err := atClock(day.In(loc), endClock)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid end time %q: %w", endClock, err)
	}
	return Interval{Start: start, End: end}, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, day.Location()), nil
}

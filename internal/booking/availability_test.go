package booking

import (
	"testing"
	"time"

	"quickbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2030, time.March, 4, h, m, 0, 0, time.UTC)
}

func confirmed(roomID int64, start, end time.Time) *models.Reservation {
	return &models.Reservation{RoomID: roomID, StartTime: start, EndTime: end, Status: models.ReservationConfirmed}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", NewInterval(at(10, 0), at(11, 0)), NewInterval(at(10, 0), at(11, 0)), true},
		{"partial", NewInterval(at(10, 0), at(11, 0)), NewInterval(at(10, 30), at(11, 30)), true},
		{"contained", NewInterval(at(10, 0), at(12, 0)), NewInterval(at(10, 30), at(11, 0)), true},
		{"touching end", NewInterval(at(10, 0), at(11, 0)), NewInterval(at(11, 0), at(12, 0)), false},
		{"touching start", NewInterval(at(11, 0), at(12, 0)), NewInterval(at(10, 0), at(11, 0)), false},
		{"disjoint", NewInterval(at(9, 0), at(10, 0)), NewInterval(at(13, 0), at(14, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestEvaluate(t *testing.T) {
	room := &models.Room{ID: 1, Name: "Everest", Capacity: 10, Availability: models.RoomAvailable}
	req := NewInterval(at(10, 0), at(11, 0))

	t.Run("no reservations", func(t *testing.T) {
		assert.Equal(t, models.StatusRoomAvailable, Evaluate(room, req, nil))
	})

	t.Run("overlapping confirmed", func(t *testing.T) {
		res := []*models.Reservation{confirmed(1, at(10, 30), at(11, 30))}
		assert.Equal(t, models.StatusRoomBooked, Evaluate(room, req, res))
	})

	t.Run("adjacent confirmed", func(t *testing.T) {
		res := []*models.Reservation{confirmed(1, at(11, 0), at(12, 0))}
		assert.Equal(t, models.StatusRoomAvailable, Evaluate(room, req, res))
	})

	t.Run("other room", func(t *testing.T) {
		res := []*models.Reservation{confirmed(2, at(10, 0), at(11, 0))}
		assert.Equal(t, models.StatusRoomAvailable, Evaluate(room, req, res))
	})

	t.Run("cancelled and completed never block", func(t *testing.T) {
		c := confirmed(1, at(10, 0), at(11, 0))
		c.Status = models.ReservationCancelled
		d := confirmed(1, at(10, 0), at(11, 0))
		d.Status = models.ReservationCompleted
		assert.Equal(t, models.StatusRoomAvailable, Evaluate(room, req, []*models.Reservation{c, d}))
	})

	t.Run("maintenance overrides", func(t *testing.T) {
		m := *room
		m.Availability = models.RoomUnderMaintenance
		assert.Equal(t, models.StatusRoomUnderMaintenance, Evaluate(&m, req, nil))
		res := []*models.Reservation{confirmed(1, at(10, 0), at(11, 0))}
		assert.Equal(t, models.StatusRoomUnderMaintenance, Evaluate(&m, req, res))
	})
}

func TestEvaluateAllKeepsOrder(t *testing.T) {
	rooms := []*models.Room{
		{ID: 3, Name: "C", Availability: models.RoomAvailable},
		{ID: 1, Name: "A", Availability: models.RoomUnderMaintenance},
		{ID: 2, Name: "B", Availability: models.RoomAvailable},
	}
	res := []*models.Reservation{confirmed(2, at(9, 0), at(10, 30))}

	got := EvaluateAll(rooms, NewInterval(at(10, 0), at(11, 0)), res)
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].Room.Name)
	assert.Equal(t, models.StatusRoomAvailable, got[0].Status)
	assert.Equal(t, models.StatusRoomUnderMaintenance, got[1].Status)
	assert.Equal(t, models.StatusRoomBooked, got[2].Status)
}

func TestTodayInterval(t *testing.T) {
	now := time.Date(2030, time.March, 4, 7, 15, 0, 0, time.UTC)

	iv, err := TodayInterval(now, "10:00", "11:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), iv.Start)
	assert.Equal(t, at(11, 30), iv.End)
	assert.Equal(t, 90*time.Minute, iv.Duration())

	_, err = TodayInterval(now, "25:00", "11:30", time.UTC)
	assert.Error(t, err)
	_, err = TodayInterval(now, "10:00", "", time.UTC)
	assert.Error(t, err)
}

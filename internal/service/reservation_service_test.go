package service

import (
	"context"
	"testing"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/database"
	"quickbook/internal/events"
	"quickbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reservationFixture struct {
	db    *database.DB
	svc   *ReservationService
	sync  *mockSyncWorker
	rec   *recorder
	user  *models.User
	other *models.User
	boss  *models.User
	room  *models.Room
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()
	db := setupDB(t)
	bus, rec := newBus()
	sw := new(mockSyncWorker)
	sw.On("EnqueueTask", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewReservationService(db, db, bus, sw, utcRules(), testLogger())
	svc.now = func() time.Time { return fixedNow }

	return &reservationFixture{
		db:    db,
		svc:   svc,
		sync:  sw,
		rec:   rec,
		user:  createUser(t, db, "Asha", "asha@jadeglobal.com", models.RoleEmployee),
		other: createUser(t, db, "Vikram", "vikram@kanverse.com", models.RoleEmployee),
		boss:  createUser(t, db, "Meera", "meera@jadeglobal.com", models.RoleAdmin),
		room:  createRoom(t, db, "Everest", models.RoomAvailable),
	}
}

func (f *reservationFixture) request(startH, startM, endH, endM int) models.ReservationRequest {
	return models.ReservationRequest{
		RoomID:    f.room.ID,
		Title:     "Sprint planning",
		StartTime: at(startH, startM),
		EndTime:   at(endH, endM),
		Amenities: "Projector, table",
	}
}

func TestReservationService_Create(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, employee(f.user), f.request(10, 0, 11, 0))
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, models.ReservationConfirmed, res.Status)
	assert.Equal(t, "projector, table", res.Amenities)
	assert.Equal(t, "Everest", res.RoomName)
	assert.Equal(t, "Asha", res.UserName)
	assert.Equal(t, []string{events.EventReservationCreated}, f.rec.types())
	f.sync.AssertCalled(t, "EnqueueTask", mock.Anything, models.SyncTaskUpsert, mock.Anything)

	t.Run("OverlapRejected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, employee(f.other), f.request(10, 30, 11, 30))
		assert.ErrorIs(t, err, database.ErrSlotTaken)
	})

	t.Run("TouchingIntervalAccepted", func(t *testing.T) {
		_, err := f.svc.Create(ctx, employee(f.other), f.request(11, 0, 12, 0))
		assert.NoError(t, err)
	})
}

func TestReservationService_CreateValidation(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  func() models.ReservationRequest
		want error
	}{
		{"before open", func() models.ReservationRequest { return f.request(8, 0, 9, 0) }, booking.ErrOutsideBusinessHours},
		{"after close", func() models.ReservationRequest { return f.request(17, 0, 18, 30) }, booking.ErrOutsideBusinessHours},
		{"too short", func() models.ReservationRequest { return f.request(10, 0, 10, 10) }, booking.ErrBelowMinimumDuration},
		{"inverted", func() models.ReservationRequest { return f.request(11, 0, 10, 0) }, booking.ErrInvalidInterval},
		{"unknown amenity", func() models.ReservationRequest {
			r := f.request(10, 0, 11, 0)
			r.Amenities = "coffee"
			return r
		}, booking.ErrUnknownAmenity},
		{"missing title", func() models.ReservationRequest {
			r := f.request(10, 0, 11, 0)
			r.Title = "  "
			return r
		}, ErrValidation},
		{"unknown room", func() models.ReservationRequest {
			r := f.request(10, 0, 11, 0)
			r.RoomID = 999
			return r
		}, database.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, employee(f.user), tt.req())
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("StartInPast", func(t *testing.T) {
		f.svc.now = func() time.Time { return at(12, 0) }
		defer func() { f.svc.now = func() time.Time { return fixedNow } }()
		_, err := f.svc.Create(ctx, employee(f.user), f.request(10, 0, 11, 0))
		assert.ErrorIs(t, err, booking.ErrStartInPast)
	})

	t.Run("UnderMaintenance", func(t *testing.T) {
		closed := createRoom(t, f.db, "Kailash", models.RoomUnderMaintenance)
		req := f.request(10, 0, 11, 0)
		req.RoomID = closed.ID
		_, err := f.svc.Create(ctx, employee(f.user), req)
		assert.ErrorIs(t, err, ErrRoomUnderMaintenance)
	})

	assert.Empty(t, f.rec.types())
}

func TestReservationService_Update(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, employee(f.user), f.request(10, 0, 11, 0))
	require.NoError(t, err)

	t.Run("NotOwner", func(t *testing.T) {
		_, err := f.svc.Update(ctx, employee(f.other), res.ID, f.request(10, 0, 12, 0))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("ExtendOwnSlot", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, employee(f.user), res.ID, f.request(10, 0, 12, 0))
		require.NoError(t, err)
		assert.True(t, updated.EndTime.Equal(at(12, 0)))
		assert.Equal(t, int64(2), updated.Version)
	})

	t.Run("ConflictWithOther", func(t *testing.T) {
		_, err := f.svc.Create(ctx, employee(f.other), f.request(14, 0, 15, 0))
		require.NoError(t, err)
		_, err = f.svc.Update(ctx, employee(f.user), res.ID, f.request(13, 0, 14, 30))
		assert.ErrorIs(t, err, database.ErrSlotTaken)
	})
}

func TestReservationService_Cancel(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, employee(f.user), f.request(10, 0, 11, 0))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, employee(f.other), res.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := f.svc.Cancel(ctx, employee(f.user), res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, employee(f.user), res.ID)
	assert.ErrorIs(t, err, database.ErrNotCancellable)

	t.Run("AdminMayCancel", func(t *testing.T) {
		res, err := f.svc.Create(ctx, employee(f.other), f.request(10, 0, 11, 0))
		require.NoError(t, err, "cancelled reservations no longer block the slot")
		_, err = f.svc.Cancel(ctx, admin(f.boss), res.ID)
		assert.NoError(t, err)
	})

	t.Run("StartedReservation", func(t *testing.T) {
		res, err := f.svc.Create(ctx, employee(f.user), f.request(15, 0, 16, 0))
		require.NoError(t, err)
		f.svc.now = func() time.Time { return at(15, 30) }
		defer func() { f.svc.now = func() time.Time { return fixedNow } }()
		_, err = f.svc.Cancel(ctx, employee(f.user), res.ID)
		assert.ErrorIs(t, err, database.ErrNotCancellable)
	})

	assert.Contains(t, f.rec.types(), events.EventReservationCancelled)
	f.sync.AssertCalled(t, "EnqueueTask", mock.Anything, models.SyncTaskUpdateStatus, mock.Anything)
}

func TestReservationService_UpdateStatus(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, employee(f.user), f.request(10, 0, 11, 0))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, employee(f.user), res.ID, "completed")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, admin(f.boss), res.ID, "archived")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdateStatus(ctx, admin(f.boss), res.ID, "confirmed")
	assert.ErrorIs(t, err, ErrNotEditable)

	updated, err := f.svc.UpdateStatus(ctx, admin(f.boss), res.ID, "Completed")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, updated.Status)
	assert.Contains(t, f.rec.types(), events.EventReservationCompleted)

	for _, status := range []string{"confirmed", "cancelled"} {
		_, err = f.svc.UpdateStatus(ctx, admin(f.boss), res.ID, status)
		assert.ErrorIs(t, err, ErrNotEditable, status)
	}
}

func TestReservationService_CompleteExpired(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, employee(f.user), f.request(10, 0, 11, 0))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, employee(f.user), f.request(15, 0, 16, 0))
	require.NoError(t, err)

	n, err := f.svc.CompleteExpired(ctx, at(12, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.db.GetReservation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, got.Status)

	n, err = f.svc.CompleteExpired(ctx, at(12, 0))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReservationService_Lists(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, employee(f.user), f.request(10, 0, 11, 0))
	require.NoError(t, err)
	theirs, err := f.svc.Create(ctx, employee(f.other), f.request(12, 0, 13, 0))
	require.NoError(t, err)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.ListMine(ctx, employee(f.user))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.user.ID, mine[0].UserID)

	byRoom, err := f.svc.ListByRoom(ctx, f.room.ID)
	require.NoError(t, err)
	assert.Len(t, byRoom, 2)

	_, err = f.svc.Get(ctx, employee(f.user), theirs.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Get(ctx, admin(f.boss), theirs.ID)
	assert.NoError(t, err)
}

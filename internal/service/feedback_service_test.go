package service

import (
	"context"
	"strings"
	"testing"

	"quickbook/internal/database"
	"quickbook/internal/events"
	"quickbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackService_Submit(t *testing.T) {
	db := setupDB(t)
	bus, rec := newBus()
	svc := NewFeedbackService(db, db, bus, testLogger())
	ctx := context.Background()

	u := createUser(t, db, "Asha", "asha@jadeglobal.com", models.RoleEmployee)
	other := createUser(t, db, "Vikram", "vikram@kanverse.com", models.RoleEmployee)
	boss := createUser(t, db, "Meera", "meera@jadeglobal.com", models.RoleAdmin)
	room := createRoom(t, db, "Everest", models.RoomAvailable)

	past := &models.Reservation{UserID: u.ID, RoomID: room.ID, Title: "Retro", StartTime: at(10, 0), EndTime: at(11, 0)}
	require.NoError(t, db.CreateReservationWithLock(ctx, past))
	upcoming := &models.Reservation{UserID: u.ID, RoomID: room.ID, Title: "Demo", StartTime: at(15, 0), EndTime: at(16, 0)}
	require.NoError(t, db.CreateReservationWithLock(ctx, upcoming))
	_, err := db.MarkCompletedReservations(ctx, at(12, 0))
	require.NoError(t, err)

	req := models.FeedbackRequest{ReservationID: past.ID, Rating: 4, Comment: " Great room "}

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.Submit(ctx, employee(u), models.FeedbackRequest{ReservationID: past.ID, Rating: 0})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.Submit(ctx, employee(u), models.FeedbackRequest{ReservationID: past.ID, Rating: 6})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.Submit(ctx, employee(u), models.FeedbackRequest{ReservationID: past.ID, Rating: 3, Comment: strings.Repeat("x", models.MaxCommentLength+1)})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("NotOwner", func(t *testing.T) {
		_, err := svc.Submit(ctx, employee(other), req)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("NotCompleted", func(t *testing.T) {
		_, err := svc.Submit(ctx, employee(u), models.FeedbackRequest{ReservationID: upcoming.ID, Rating: 5})
		assert.ErrorIs(t, err, ErrFeedbackNotAllowed)
	})

	fb, err := svc.Submit(ctx, employee(u), req)
	require.NoError(t, err)
	assert.Equal(t, "Great room", fb.Comment)
	assert.Equal(t, "Everest", fb.RoomName)
	assert.Equal(t, []string{events.EventFeedbackSubmitted}, rec.types())

	res, err := db.GetReservation(ctx, past.ID)
	require.NoError(t, err)
	assert.True(t, res.FeedbackProvided)

	_, err = svc.Submit(ctx, employee(u), req)
	assert.ErrorIs(t, err, database.ErrDuplicate)

	mine, err := svc.ListMine(ctx, employee(u))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	byRoom, err := svc.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, byRoom, 1)

	assert.ErrorIs(t, svc.Delete(ctx, employee(u), fb.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin(boss), fb.ID))
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

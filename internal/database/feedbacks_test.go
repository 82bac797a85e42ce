package database

import (
	"context"
	"testing"

	"quickbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ravi := seedUser(t, db, "Ravi", "ravi@kanverse.com")
	room := seedRoom(t, db, "Everest")

	start, end := slot(1, 10, 60)
	res := &models.Reservation{UserID: ravi.ID, RoomID: room.ID, Title: "t", StartTime: start, EndTime: end}
	require.NoError(t, db.CreateReservationWithLock(ctx, res))

	fb := &models.Feedback{ReservationID: res.ID, UserID: ravi.ID, RoomID: room.ID, Rating: 5, Comment: "great"}
	require.NoError(t, db.CreateFeedback(ctx, fb))
	assert.NotZero(t, fb.ID)

	got, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, got.FeedbackProvided)

	dup := &models.Feedback{ReservationID: res.ID, UserID: ravi.ID, RoomID: room.ID, Rating: 1}
	assert.ErrorIs(t, db.CreateFeedback(ctx, dup), ErrDuplicate)

	byRoom, err := db.ListFeedbacksByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, byRoom, 1)
	assert.Equal(t, "Ravi", byRoom[0].UserName)
	assert.Equal(t, "Everest", byRoom[0].RoomName)

	byUser, err := db.ListFeedbacksByUser(ctx, ravi.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	recent, err := db.ListRecentFeedbacks(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	require.NoError(t, db.DeleteFeedback(ctx, fb.ID))
	assert.ErrorIs(t, db.DeleteFeedback(ctx, fb.ID), ErrNotFound)
	_, err = db.GetFeedback(ctx, fb.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	reopened, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, reopened.FeedbackProvided)

	again := &models.Feedback{ReservationID: res.ID, UserID: ravi.ID, RoomID: room.ID, Rating: 4}
	require.NoError(t, db.CreateFeedback(ctx, again))
	rated, err := db.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, rated.FeedbackProvided)
}

func TestFeedbackForMissingReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	err := db.CreateFeedback(ctx, &models.Feedback{ReservationID: 42, UserID: 1, RoomID: 1, Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := db.ListFeedbacks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "insert must be rolled back")
}

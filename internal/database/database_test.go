package database

import (
	"context"
	"io"
	"testing"
	"time"

	"quickbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func seedRoom(t *testing.T, db *DB, name string) *models.Room {
	t.Helper()
	r := &models.Room{Name: name, Location: models.LocationHyderabad, Capacity: 8}
	require.NoError(t, db.CreateRoom(context.Background(), r))
	return r
}

// slot returns an hour-aligned interval days ahead of now.
func slot(days, hour, minutes int) (time.Time, time.Time) {
	base := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, days)
	start := base.Add(time.Duration(hour) * time.Hour)
	return start, start.Add(time.Duration(minutes) * time.Minute)
}

func TestNewDBCreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"users", "rooms", "reservations", "feedbacks", "sync_queue"} {
		n, err := db.count(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ctx := context.Background()

	t.Run("CreateRoom", func(t *testing.T) {
		assert.Error(t, db.CreateRoom(ctx, &models.Room{Name: "x"}))
	})
	t.Run("ListReservations", func(t *testing.T) {
		_, err := db.ListReservations(ctx)
		assert.Error(t, err)
	})
	t.Run("CreateReservationWithLock", func(t *testing.T) {
		assert.Error(t, db.CreateReservationWithLock(ctx, &models.Reservation{}))
	})
	t.Run("CreateSyncTask", func(t *testing.T) {
		assert.Error(t, db.CreateSyncTask(ctx, &models.SyncTask{}))
	})
	t.Run("CountUsers", func(t *testing.T) {
		_, err := db.CountUsers(ctx)
		assert.Error(t, err)
	})
}

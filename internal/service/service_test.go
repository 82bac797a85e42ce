package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"quickbook/internal/booking"
	"quickbook/internal/database"
	"quickbook/internal/events"
	"quickbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixedNow is a Monday morning before business hours.
var fixedNow = time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, res *models.Reservation) error {
	return m.Called(ctx, taskType, res).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.Called(ctx, email, code, ttl).Error(0)
}

// recorder captures published events by type.
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) handle(e *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newBus() (*events.EventBus, *recorder) {
	bus := events.NewEventBus()
	rec := &recorder{}
	bus.SubscribeMany(append(append([]string{}, events.ReservationEvents...), events.EventFeedbackSubmitted), rec.handle)
	return bus, rec
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func utcRules() booking.Rules {
	r := booking.DefaultRules()
	r.Location = time.UTC
	return r
}

func createUser(t *testing.T, db *database.DB, name, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func createRoom(t *testing.T, db *database.DB, name string, availability models.RoomAvailability) *models.Room {
	t.Helper()
	r := &models.Room{Name: name, Location: models.LocationPuneBaner, Capacity: 6, Availability: availability}
	require.NoError(t, db.CreateRoom(context.Background(), r))
	return r
}

// at returns fixedNow's date at hour:minute.
func at(hour, minute int) time.Time {
	return time.Date(fixedNow.Year(), fixedNow.Month(), fixedNow.Day(), hour, minute, 0, 0, time.UTC)
}

func employee(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: models.RoleEmployee}
}

func admin(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: models.RoleAdmin}
}

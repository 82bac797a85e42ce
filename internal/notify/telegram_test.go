package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"quickbook/internal/events"
	"quickbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	failFor int64
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if msg.ChatID == f.failFor {
		return tgbotapi.Message{}, errors.New("blocked")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func newNotifier(sender Sender, chats ...int64) *TelegramNotifier {
	logger := zerolog.Nop()
	return NewTelegramNotifier(sender, chats, time.UTC, &logger)
}

func reservationFixture() *models.Reservation {
	return &models.Reservation{
		ID:        7,
		UserID:    3,
		UserName:  "Alice",
		UserEmail: "alice@example.com",
		RoomID:    2,
		RoomName:  "Orion",
		Title:     "Planning",
		StartTime: time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2030, 3, 4, 11, 30, 0, 0, time.UTC),
		Status:    models.ReservationConfirmed,
	}
}

func TestTelegramNotifier_ReservationEvents(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(sender, 100, 200)
	bus := events.NewEventBus()
	n.Subscribe(bus)

	payload := events.NewReservationPayload(reservationFixture(), 3)
	require.NoError(t, bus.PublishJSON(events.EventReservationCreated, payload))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(100), sender.sent[0].ChatID)
	assert.Equal(t, int64(200), sender.sent[1].ChatID)

	text := sender.sent[0].Text
	assert.Contains(t, text, "New reservation #7")
	assert.Contains(t, text, "Room: Orion")
	assert.Contains(t, text, "Title: Planning")
	assert.Contains(t, text, "Alice <alice@example.com>")
	assert.Contains(t, text, "04.03.2030 10:00-11:30")
	assert.Contains(t, text, "Status: confirmed")
}

func TestTelegramNotifier_Headers(t *testing.T) {
	n := newNotifier(&fakeSender{})
	p := events.NewReservationPayload(reservationFixture(), 1)

	assert.Contains(t, n.formatReservation(events.EventReservationCancelled, p), "Reservation cancelled")
	assert.Contains(t, n.formatReservation(events.EventReservationCompleted, p), "Reservation completed")
	assert.Contains(t, n.formatReservation(events.EventReservationUpdated, p), "Reservation changed")

	p.RoomName = ""
	assert.Contains(t, n.formatReservation(events.EventReservationCreated, p), "Room ID: 2")
}

func TestTelegramNotifier_Feedback(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(sender, 1)
	bus := events.NewEventBus()
	n.Subscribe(bus)

	require.NoError(t, bus.PublishJSON(events.EventFeedbackSubmitted, events.FeedbackEventPayload{
		FeedbackID: 9, ReservationID: 7, RoomID: 2, Rating: 4,
	}))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "New feedback #9")
	assert.Contains(t, sender.sent[0].Text, "Rating: 4/5")
}

func TestTelegramNotifier_PartialFailure(t *testing.T) {
	sender := &fakeSender{failFor: 100}
	n := newNotifier(sender, 100, 200)

	event, err := events.NewJSONEvent(events.EventReservationCreated, events.NewReservationPayload(reservationFixture(), 3))
	require.NoError(t, err)

	err = n.HandleReservation(&event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 100")
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(200), sender.sent[0].ChatID)
}

func TestTelegramNotifier_BadPayload(t *testing.T) {
	n := newNotifier(&fakeSender{}, 1)
	err := n.HandleReservation(&events.Event{Type: events.EventReservationCreated, Payload: []byte("{")})
	assert.Error(t, err)
}

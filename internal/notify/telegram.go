package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbook/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier forwards reservation and feedback events to admin chats.
type TelegramNotifier struct {
	sender  Sender
	chatIDs []int64
	loc     *time.Location
	logger  *zerolog.Logger
}

// NewTelegramBot connects to the Bot API with the given token.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func NewTelegramNotifier(sender Sender, chatIDs []int64, loc *time.Location, logger *zerolog.Logger) *TelegramNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &TelegramNotifier{sender: sender, chatIDs: chatIDs, loc: loc, logger: logger}
}

// Subscribe attaches the notifier to every reservation event and to feedback.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bus.SubscribeMany(events.ReservationEvents, n.HandleReservation)
	bus.Subscribe(events.EventFeedbackSubmitted, n.HandleFeedback)
}

func (n *TelegramNotifier) HandleReservation(event *events.Event) error {
	var payload events.ReservationEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode reservation event: %w", err)
	}
	return n.broadcast(n.formatReservation(event.Type, payload))
}

func (n *TelegramNotifier) HandleFeedback(event *events.Event) error {
	var payload events.FeedbackEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode feedback event: %w", err)
	}
	text := fmt.Sprintf("⭐ New feedback #%d\nReservation: #%d\nRoom ID: %d\nRating: %d/5",
		payload.FeedbackID, payload.ReservationID, payload.RoomID, payload.Rating)
	return n.broadcast(text)
}

func (n *TelegramNotifier) formatReservation(eventType string, p events.ReservationEventPayload) string {
	var header string
	switch eventType {
	case events.EventReservationCreated:
		header = "🆕 New reservation"
	case events.EventReservationUpdated:
		header = "✏️ Reservation changed"
	case events.EventReservationCancelled:
		header = "❌ Reservation cancelled"
	case events.EventReservationCompleted:
		header = "✅ Reservation completed"
	default:
		header = "Reservation " + eventType
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%d\n", header, p.ReservationID)
	if p.RoomName != "" {
		fmt.Fprintf(&sb, "Room: %s\n", p.RoomName)
	} else {
		fmt.Fprintf(&sb, "Room ID: %d\n", p.RoomID)
	}
	if p.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", p.Title)
	}
	if p.UserName != "" || p.UserEmail != "" {
		fmt.Fprintf(&sb, "By: %s <%s>\n", p.UserName, p.UserEmail)
	}
	start := p.StartTime.In(n.loc)
	end := p.EndTime.In(n.loc)
	fmt.Fprintf(&sb, "When: %s %s-%s\n", start.Format("02.01.2006"), start.Format("15:04"), end.Format("15:04"))
	fmt.Fprintf(&sb, "Status: %s", p.Status)
	return sb.String()
}

func (n *TelegramNotifier) broadcast(text string) error {
	var errs []error
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send telegram notification")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

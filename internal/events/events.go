package events

import (
	"encoding/json"
	"sync"
	"time"

	"quickbook/internal/models"

	"github.com/google/uuid"
)

const (
	EventReservationCreated   = "reservation_created"
	EventReservationUpdated   = "reservation_updated"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationCompleted = "reservation_completed"
	EventFeedbackSubmitted    = "feedback_submitted"
)

// ReservationEvents lists every reservation lifecycle event type.
var ReservationEvents = []string{
	EventReservationCreated,
	EventReservationUpdated,
	EventReservationCancelled,
	EventReservationCompleted,
}

// ReservationEventPayload is the reservation snapshot sent to consumers.
type ReservationEventPayload struct {
	ReservationID int64                    `json:"reservation_id"`
	UserID        int64                    `json:"user_id"`
	UserName      string                   `json:"user_name,omitempty"`
	UserEmail     string                   `json:"user_email,omitempty"`
	RoomID        int64                    `json:"room_id"`
	RoomName      string                   `json:"room_name,omitempty"`
	Title         string                   `json:"title,omitempty"`
	StartTime     time.Time                `json:"start_time"`
	EndTime       time.Time                `json:"end_time"`
	Status        models.ReservationStatus `json:"status"`
	Amenities     string                   `json:"amenities,omitempty"`
	ChangedByID   int64                    `json:"changed_by_id,omitempty"`
}

// NewReservationPayload snapshots res; actorID is the user who caused the change.
func NewReservationPayload(res *models.Reservation, actorID int64) ReservationEventPayload {
	return ReservationEventPayload{
		ReservationID: res.ID,
		UserID:        res.UserID,
		UserName:      res.UserName,
		UserEmail:     res.UserEmail,
		RoomID:        res.RoomID,
		RoomName:      res.RoomName,
		Title:         res.Title,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Status:        res.Status,
		Amenities:     res.Amenities,
		ChangedByID:   actorID,
	}
}

// Reservation rebuilds the model fields carried by the payload.
func (p ReservationEventPayload) Reservation() *models.Reservation {
	return &models.Reservation{
		ID:        p.ReservationID,
		UserID:    p.UserID,
		UserName:  p.UserName,
		UserEmail: p.UserEmail,
		RoomID:    p.RoomID,
		RoomName:  p.RoomName,
		Title:     p.Title,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Status:    p.Status,
		Amenities: p.Amenities,
	}
}

type FeedbackEventPayload struct {
	FeedbackID    int64 `json:"feedback_id"`
	ReservationID int64 `json:"reservation_id"`
	UserID        int64 `json:"user_id"`
	RoomID        int64 `json:"room_id"`
	Rating        int   `json:"rating"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	onError     func(event *Event, err error)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError sets a hook called for every handler error.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeMany registers one handler for several event types.
func (b *EventBus) SubscribeMany(eventTypes []string, handler EventHandler) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Publish runs the subscribers of the event type synchronously.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event. Nil buses drop events.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

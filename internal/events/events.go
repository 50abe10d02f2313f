package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated         = "booking_created"
	EventBookingStatusChanged   = "booking_status_changed"
	EventBookingCancelled       = "booking_cancelled"
	EventBookingDeleted         = "booking_deleted"
	EventRecurringSeriesCreated = "recurring_series_created"
)

const allEvents = "*"

// BookingEventPayload is the booking snapshot handed to event consumers.
type BookingEventPayload struct {
	BookingID       int64  `json:"booking_id"`
	ClientID        int64  `json:"client_id"`
	ServiceID       int64  `json:"service_id"`
	StaffID         *int64 `json:"staff_id,omitempty"`
	CustomerID      *int64 `json:"customer_id,omitempty"`
	BookingDate     string `json:"booking_date"`
	BookingTime     string `json:"booking_time"`
	Duration        int    `json:"duration"`
	Status          string `json:"status"`
	PreviousStatus  string `json:"previous_status,omitempty"`
	ParentBookingID *int64 `json:"parent_booking_id,omitempty"`
	Occurrences     int    `json:"occurrences,omitempty"`
	Source          string `json:"source,omitempty"`
}

type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler that sees every event.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.Subscribe(allEvents, handler)
}

// Publish runs the type's handlers, then the catch-all ones, synchronously.
// Every handler runs; their errors are joined.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[allEvents]...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventConsultationCreated       = "consultation_created"
	EventConsultationStatusChanged = "consultation_status_changed"
	EventRegistrationCreated       = "registration_created"
	EventRegistrationDeleted       = "registration_deleted"
	EventPartnerChanged            = "partner_changed"
	EventStoryChanged              = "success_story_changed"

	// AllEvents subscribes a handler to every event type.
	AllEvents = "*"
)

// ConsultationPayload is the consultation snapshot sent to consumers.
type ConsultationPayload struct {
	ConsultationID int64  `json:"consultation_id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	MeetingDate    string `json:"meeting_date"`
	MeetingTime    string `json:"meeting_time"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
}

// RegistrationPayload describes a registration event.
type RegistrationPayload struct {
	RegistrationID int64  `json:"registration_id"`
	Email          string `json:"email"`
	HasCV          bool   `json:"has_cv"`
}

// ContentPayload describes a partner or success story change.
type ContentPayload struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
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

// OnError sets the callback for handler failures.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type or AllEvents.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[AllEvents]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

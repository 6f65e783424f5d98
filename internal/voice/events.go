package voice

import (
	"sync"

	"github.com/dioinnovo/voicelead/internal/dialogue"
)

// EventType names a lifecycle or data event emitted by the transport.
type EventType string

const (
	EventConnected         EventType = "connected"
	EventDisconnected      EventType = "disconnected"
	EventCallStarted       EventType = "call_started"
	EventCallEnded         EventType = "call_ended"
	EventTranscript        EventType = "transcript"
	EventInterimTranscript EventType = "interim_transcript"
	EventUIAction          EventType = "ui_action"
	EventAudioStart        EventType = "audio_start"
	EventAudioEnd          EventType = "audio_end"
	EventConnectionError   EventType = "connection_error"
)

// Event is a single notification from the transport layer.
type Event struct {
	Type     EventType
	Role     dialogue.Role      // speaker for transcript events
	Text     string             // transcript text
	UIAction *dialogue.UIAction // for ui_action events
	Err      error              // for connection_error events
}

// Handler consumes events. Handlers run synchronously on the publishing
// goroutine and must not block.
type Handler func(Event)

// Subscription is the handle returned by Subscribe. Cancel removes the
// handler; cancelling twice is a no-op.
type Subscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

// Cancel unsubscribes the handler.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
	})
}

type subscriber struct {
	kind    EventType
	all     bool
	handler Handler
}

// Bus is a typed publish/subscribe surface for transport events.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscriber)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(kind EventType, h Handler) *Subscription {
	return b.add(subscriber{kind: kind, handler: h})
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) *Subscription {
	return b.add(subscriber{all: true, handler: h})
}

func (b *Bus) add(sub subscriber) *Subscription {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()
	return &Subscription{bus: b, id: id}
}

// Publish delivers the event to every matching handler.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	matched := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.all || sub.kind == evt.Type {
			matched = append(matched, sub.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range matched {
		h(evt)
	}
}

package lobby

import (
	"sync"
	"time"

	"github.com/lox/oblech/internal/round"
)

// EventType represents a lobby event type with type safety
type EventType string

const (
	EventTypeLobbyUpdated EventType = "lobby_updated"
	EventTypeStateUpdated EventType = "state_updated"
	EventTypeGameWon      EventType = "game_won"
	EventTypeLobbyClosed  EventType = "lobby_closed"
)

func (et EventType) String() string {
	return string(et)
}

// Event is anything a lobby publishes after an accepted operation.
type Event interface {
	EventType() EventType
	LobbyID() string
	Timestamp() time.Time
}

type header struct {
	lobbyID   string
	timestamp time.Time
}

func (h header) LobbyID() string      { return h.lobbyID }
func (h header) Timestamp() time.Time { return h.timestamp }

// LobbyUpdatedEvent is published when membership, leadership or scores change.
type LobbyUpdatedEvent struct {
	header
	Info Info
}

func (e LobbyUpdatedEvent) EventType() EventType { return EventTypeLobbyUpdated }

// StateUpdatedEvent carries the new game snapshot. State is nil when a game
// was aborted.
type StateUpdatedEvent struct {
	header
	State      *round.State
	Transition round.Transition
}

func (e StateUpdatedEvent) EventType() EventType { return EventTypeStateUpdated }

// NewStateUpdatedEvent builds a state event for publishing outside a lobby,
// e.g. when replaying a game.
func NewStateUpdatedEvent(lobbyID string, s *round.State, tr round.Transition) StateUpdatedEvent {
	return StateUpdatedEvent{header: header{lobbyID: lobbyID, timestamp: time.Now()}, State: s, Transition: tr}
}

// GameWonEvent is published when a single player is left standing.
type GameWonEvent struct {
	header
	WinnerID   string
	WinnerName string
}

func (e GameWonEvent) EventType() EventType { return EventTypeGameWon }

// LobbyClosedEvent is published when the last human leaves.
type LobbyClosedEvent struct {
	header
}

func (e LobbyClosedEvent) EventType() EventType { return EventTypeLobbyClosed }

// NewLobbyClosedEvent builds a close event for lobbyID.
func NewLobbyClosedEvent(lobbyID string) LobbyClosedEvent {
	return LobbyClosedEvent{header: header{lobbyID: lobbyID, timestamp: time.Now()}}
}

// EventSubscriber receives lobby events
type EventSubscriber interface {
	OnEvent(event Event)
}

// SubscriberFunc adapts a function to EventSubscriber.
type SubscriberFunc func(Event)

func (f SubscriberFunc) OnEvent(e Event) { f(e) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber) (unsubscribe func())
	Publish(event Event)
}

// SimpleEventBus is an in-memory event bus. Lobbies publish concurrently, so
// the subscriber list is guarded; subscribers run on the publisher's goroutine.
type SimpleEventBus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{subscribers: make(map[int]EventSubscriber)}
}

// Subscribe adds a subscriber and returns a function that removes it.
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) func() {
	bus.mu.Lock()
	id := bus.nextID
	bus.nextID++
	bus.subscribers[id] = subscriber
	bus.mu.Unlock()

	return func() {
		bus.mu.Lock()
		delete(bus.subscribers, id)
		bus.mu.Unlock()
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]EventSubscriber, 0, len(bus.subscribers))
	for _, s := range bus.subscribers {
		subs = append(subs, s)
	}
	bus.mu.RUnlock()

	for _, s := range subs {
		s.OnEvent(event)
	}
}

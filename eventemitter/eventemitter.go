// Package eventemitter provides typed event handling: listeners are
// registered against named events and receive a single typed event
// value when the event is emitted.
//
// By default each listener is called synchronously when an event is
// emitted. If you want asynchronous (non-blocking) listeners, wrap your
// listener in a go routine.
//
// Example:
//
//	e := eventemitter.New[string]()
//	token := e.AddListener("my-event", func(msg string) { fmt.Println(msg) })
//	e.Emit("my-event", "hello") // Output: hello
//	e.RemoveListener("my-event", token)
package eventemitter

import (
	"math/rand"
	"slices"
	"sync"
)

// ListenerToken is the token returned when a listener is added.
type ListenerToken string

func generateToken() ListenerToken {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	key := make([]byte, 6)
	for i := range key {
		key[i] = letters[rand.Intn(len(letters))]
	}
	return ListenerToken(key)
}

// EventTarget instance represents an event target tied to a specific event name.
type EventTarget[T any] struct {
	eventEmitter *EventEmitter[T]
	eventName    string
}

func NewEventTarget[T any](eventName string) *EventTarget[T] {
	return &EventTarget[T]{New[T](), eventName}
}

func (et *EventTarget[T]) EventName() string {
	return et.eventName
}

func (et *EventTarget[T]) AddListener(listener func(event T)) ListenerToken {
	return et.eventEmitter.AddListener(et.eventName, listener)
}

func (et *EventTarget[T]) RemoveListener(token ListenerToken) bool {
	return et.eventEmitter.RemoveListener(et.eventName, token)
}

func (et *EventTarget[T]) RemoveAllListeners() bool {
	return et.eventEmitter.RemoveAllListeners(et.eventName)
}

func (et *EventTarget[T]) Emit(event T) bool {
	return et.eventEmitter.Emit(et.eventName, event)
}

// EventEmitter supports adding multiple named events with typed
// listeners and is safe for concurrent use.
type EventEmitter[T any] struct {
	mu     sync.RWMutex
	events map[string][]eventListener[T]
}

type eventListener[T any] struct {
	token   ListenerToken
	handler func(event T)
}

// New creates a new EventEmitter instance.
func New[T any]() *EventEmitter[T] {
	return &EventEmitter[T]{
		events: make(map[string][]eventListener[T]),
	}
}

// AddListener adds a listener function to a specific event.
func (e *EventEmitter[T]) AddListener(eventName string, listener func(event T)) ListenerToken {
	e.mu.Lock()
	defer e.mu.Unlock()

	token := generateToken()
	e.events[eventName] = append(e.events[eventName], eventListener[T]{
		token:   token,
		handler: listener,
	})
	return token
}

// RemoveListener removes a listener by token from a specific event.
func (e *EventEmitter[T]) RemoveListener(eventName string, token ListenerToken) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	listeners, ok := e.events[eventName]
	if !ok {
		return false
	}
	for i, listener := range listeners {
		if listener.token == token {
			e.events[eventName] = slices.Delete(listeners, i, i+1)
			return true
		}
	}
	return false
}

// RemoveAllListeners removes all listeners for the specified event.
func (e *EventEmitter[T]) RemoveAllListeners(eventName string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.events[eventName]; ok {
		delete(e.events, eventName)
		return true
	}
	return false
}

// Emit calls each listener synchronously for the given event, passing the event value.
func (e *EventEmitter[T]) Emit(eventName string, event T) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	listeners, ok := e.events[eventName]
	if !ok || len(listeners) == 0 {
		return false
	}
	for _, listener := range listeners {
		listener.handler(event)
	}
	return true
}

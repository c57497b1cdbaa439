// Package hooks is the host's lifecycle hook bus. Modules subscribe to
// named hooks such as "init" and the host calls them in priority order.
package hooks

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Name identifies a hook
type Name string

const (
	// Init fires once when the host starts, before it accepts interactions
	Init Name = "init"
	// Ready fires once after every Init listener has run
	Ready Name = "ready"
)

// Priority levels for listener order; lower runs first
const (
	PriorityCore    = 0
	PriorityDefault = 100
	PriorityLate    = 500
)

// Handler runs when a hook is called
type Handler func(ctx context.Context) error

// Listener is a named handler subscribed to a hook
type Listener struct {
	ID       string
	Priority int
	Handle   Handler

	once bool
}

// Bus manages hook subscriptions
type Bus struct {
	listeners map[Name][]Listener
	called    map[Name]int
	mu        sync.RWMutex
}

// NewBus creates a new hook bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[Name][]Listener),
		called:    make(map[Name]int),
	}
}

// On subscribes l to every call of name
func (b *Bus) On(name Name, l Listener) {
	b.subscribe(name, l)
}

// Once subscribes l to the next call of name only
func (b *Bus) Once(name Name, l Listener) {
	l.once = true
	b.subscribe(name, l)
}

func (b *Bus) subscribe(name Name, l Listener) {
	if l.Handle == nil {
		log.Printf("Hooks: ignoring listener %s on %s with no handler", l.ID, name)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[name] = append(b.listeners[name], l)

	// Stable so equal priorities keep subscription order
	sort.SliceStable(b.listeners[name], func(i, j int) bool {
		return b.listeners[name][i].Priority < b.listeners[name][j].Priority
	})

	log.Printf("Hooks: Subscribed listener %s to hook %s with priority %d", l.ID, name, l.Priority)
}

// Off removes the listener with the given id from name
func (b *Bus) Off(name Name, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[name]
	for i, l := range listeners {
		if l.ID != id {
			continue
		}
		b.listeners[name] = append(listeners[:i:i], listeners[i+1:]...)
		log.Printf("Hooks: Unsubscribed listener %s from hook %s", id, name)
		return
	}
}

// Call runs every listener of name in priority order. Once listeners are
// dropped before they run. The first failing listener stops the call.
func (b *Bus) Call(ctx context.Context, name Name) error {
	b.mu.Lock()
	listeners := make([]Listener, len(b.listeners[name]))
	copy(listeners, b.listeners[name])

	kept := b.listeners[name][:0]
	for _, l := range b.listeners[name] {
		if !l.once {
			kept = append(kept, l)
		}
	}
	b.listeners[name] = kept
	b.called[name]++
	b.mu.Unlock()

	log.Printf("Hooks: Calling hook %s with %d listeners", name, len(listeners))

	for _, l := range listeners {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Handle(ctx); err != nil {
			return fmt.Errorf("listener %s failed: %w", l.ID, err)
		}
	}

	return nil
}

// Called reports how many times name has been called
func (b *Bus) Called(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.called[name]
}

// Listeners returns the number of listeners subscribed to name
func (b *Bus) Listeners(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[name])
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[Name][]Listener)
	log.Printf("Hooks: Cleared all listeners")
}

// Start calls Init then Ready
func (b *Bus) Start(ctx context.Context) error {
	if err := b.Call(ctx, Init); err != nil {
		return err
	}
	return b.Call(ctx, Ready)
}

// Package events provides the notification channel used to signal
// backend-originated events such as an external settings change. A Bus is
// constructed and owned by its caller; there is no process-wide instance.
package events

import (
	"strings"
	"sync"
)

// Event names published by the settings backend.
const (
	// ConfigChanged signals that the settings schema changed outside the
	// current session and must be reloaded.
	ConfigChanged = "config.changed"
	// AppRefresh asks the active view to reload.
	AppRefresh = "app.refresh"
	// NotificationSend carries a user notification payload.
	NotificationSend = "notification.send"
	// NotificationEnabled toggles user notifications.
	NotificationEnabled = "notification.enabled"
	// Status carries progress updates.
	Status = "status"
)

// Handler receives an event payload.
type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe channel keyed by event name. Handlers
// run on the emitting goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64
	closed bool
}

// NewBus returns an empty, open bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers handler for name and returns a function that removes
// it. The returned function is safe to call more than once. Subscribing to a
// closed bus, with an empty name or a nil handler registers nothing.
func (b *Bus) Subscribe(name string, handler Handler) func() {
	name = strings.TrimSpace(name)
	if b == nil || name == "" || handler == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		subs = append(subs[:i:i], subs[i+1:]...)
		break
	}
	if len(subs) == 0 {
		delete(b.subs, name)
		return
	}
	b.subs[name] = subs
}

// Unsubscribe removes every handler registered for name.
func (b *Bus) Unsubscribe(name string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, strings.TrimSpace(name))
}

// Emit calls every handler registered for name with payload. Handlers added
// or removed during delivery take effect on the next Emit.
func (b *Bus) Emit(name string, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[strings.TrimSpace(name)]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(payload)
	}
}

// Subscribers reports how many handlers are registered for name.
func (b *Bus) Subscribers(name string) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[strings.TrimSpace(name)])
}

// Close removes every handler. Later Subscribe calls register nothing and
// Emit becomes a no-op.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]subscription)
	b.closed = true
}

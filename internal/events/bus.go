package events

import "sync"

// Bus is a small channel-based pub-sub fan-out for run lifecycle events.
// Every subscriber receives every event; consumers filter by EventType.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a read-only channel receiving all published events.
// bufSize defaults to 256 if <= 0. The channel is closed when the bus
// closes.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = 256
	}

	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}

	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers an event to all subscribers. Non-blocking: a
// subscriber with a full channel misses the event rather than stalling
// the run.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Subscriber is behind; drop.
		}
	}
}

// Close closes the bus and all subscriber channels. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

package hub

import (
	"sync"

	"github.com/google/uuid"
)

const defaultListenerBuffer = 16

// Registry fans delivered events out to in-process listeners. Any component
// may subscribe or unsubscribe at any time, including from inside its own
// receive loop; emitting never blocks, a listener whose buffer is full simply
// misses the event.
type Registry struct {
	mu        sync.RWMutex
	listeners map[string]chan Event
}

func NewRegistry() *Registry {
	return &Registry{
		listeners: make(map[string]chan Event),
	}
}

// Subscribe registers a listener and returns its id and receive channel.
// A buffer <= 0 falls back to a small default.
func (r *Registry) Subscribe(buffer int) (string, <-chan Event) {
	if buffer <= 0 {
		buffer = defaultListenerBuffer
	}
	id := uuid.NewString()
	ch := make(chan Event, buffer)

	r.mu.Lock()
	r.listeners[id] = ch
	r.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a listener and closes its channel. Safe to call twice.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.listeners[id]
	if !ok {
		return
	}
	close(ch)
	delete(r.listeners, id)
}

// Emit delivers the event to every current listener without blocking.
// Channels are only closed under the same lock, so a listener unsubscribing
// mid-emit cannot race the send.
func (r *Registry) Emit(e Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.listeners {
		select {
		case ch <- e:
		default:
			// Listener is not keeping up; drop rather than stall delivery.
		}
	}
}

// Len reports the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

package feed

import (
	"sync"

	"github.com/google/uuid"
)

type subscription[T any] struct {
	id uuid.UUID
	ch chan T
}

// hub fans one stream out to many subscribers. A slow subscriber never
// blocks the broadcaster: messages it cannot buffer are dropped.
type hub[T any] struct {
	mu   sync.RWMutex
	subs map[*subscription[T]]struct{}
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[*subscription[T]]struct{})}
}

func (h *hub[T]) Subscribe(buffer int) *subscription[T] {
	sub := &subscription[T]{id: uuid.New(), ch: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub[T]) Unsubscribe(sub *subscription[T]) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	close(sub.ch)
}

// Broadcast delivers value to every subscriber with buffer room and returns
// the number of subscribers that had to drop it.
func (h *hub[T]) Broadcast(value T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
			dropped++
		}
	}
	return dropped
}

func (h *hub[T]) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// client/events/hub.go
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-client/session"
)

const (
	TypeState = "state"

	subscriberBuffer = 16
)

type Message struct {
	Type  string        `json:"type"`
	State session.State `json:"state"`
}

// Hub fans controller snapshots out to subscribers. A subscriber that
// falls behind is dropped and its channel closed.
type Hub struct {
	clients    map[chan Message]bool
	broadcast  chan Message
	pending    sync.Mutex
	register   chan chan Message
	unregister chan chan Message
	done       chan struct{}
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[chan Message]bool),
		broadcast:  make(chan Message, 1),
		register:   make(chan chan Message),
		unregister: make(chan chan Message),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run dispatches messages until ctx is done, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return

		case ch := <-h.register:
			h.mu.Lock()
			h.clients[ch] = true
			h.mu.Unlock()

		case ch := <-h.unregister:
			h.drop(ch)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []chan Message
			for ch := range h.clients {
				select {
				case ch <- msg:
				default:
					slow = append(slow, ch)
				}
			}
			h.mu.RUnlock()
			for _, ch := range slow {
				h.log.Warn().Msg("dropping slow subscriber")
				h.drop(ch)
			}
		}
	}
}

// Notify implements session.Notifier. It never blocks the controller.
// Every message is a full snapshot, so one that has not been dispatched
// yet is replaced by the newer one.
func (h *Hub) Notify(s session.State) {
	msg := Message{Type: TypeState, State: s}

	h.pending.Lock()
	defer h.pending.Unlock()
	for {
		select {
		case h.broadcast <- msg:
			return
		default:
		}
		select {
		case <-h.broadcast:
			h.log.Debug().Msg("superseded pending snapshot")
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called once the caller stops reading.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)
	select {
	case h.register <- ch:
	case <-ctx.Done():
		close(ch)
		return ch, func() {}
	case <-h.done:
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			select {
			case h.unregister <- ch:
			case <-h.done:
			}
		})
	}
	return ch, cancel
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(ch chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

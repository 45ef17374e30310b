package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/intothevoid/prodcam/internal/log"
)

// StateEvent is one state change pushed to /events clients.
type StateEvent struct {
	Time  string `json:"t"`
	State string `json:"state"`
}

// Broadcaster distributes state changes to websocket clients.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan StateEvent]struct{}
}

// NewBroadcaster creates a broadcaster with no clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan StateEvent]struct{})}
}

// Subscribe returns a channel of events and a cleanup function the caller
// must call when done.
func (b *Broadcaster) Subscribe() (<-chan StateEvent, func()) {
	ch := make(chan StateEvent, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends state to every client. Slow clients miss events.
func (b *Broadcaster) Publish(state string) {
	evt := StateEvent{Time: time.Now().Format(time.RFC3339Nano), State: state}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleEvents upgrades to a websocket and streams state changes, starting
// with the current state.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	events, unsub := h.events.Subscribe()
	defer unsub()

	// reads only to notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	current := StateEvent{Time: time.Now().Format(time.RFC3339Nano), State: h.ctrl.State()}
	if err := conn.WriteJSON(current); err != nil {
		return
	}
	for {
		select {
		case <-gone:
			return
		case evt := <-events:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(evt); err != nil {
				log.Debug("websocket write", "error", err)
				return
			}
		}
	}
}

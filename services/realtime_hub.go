package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"foodwagen/models"
)

const (
	// EventFoodsChanged tells dashboards their food list is out of date.
	EventFoodsChanged = "foods.changed"

	wsWriteWait    = 10 * time.Second
	wsPingInterval = 25 * time.Second
	wsSendBuffer   = 16
)

// Event is pushed to every connected dashboard.
type Event struct {
	Kind   string                `json:"kind"`
	Action models.ActivityAction `json:"action"`
	FoodID string                `json:"food_id,omitempty"`
	Search string                `json:"search"`
	At     time.Time             `json:"at"`
}

type WSClient struct {
	Conn *websocket.Conn
	send chan []byte
}

func NewWSClient(conn *websocket.Conn) *WSClient {
	return &WSClient{Conn: conn, send: make(chan []byte, wsSendBuffer)}
}

// RealtimeHub fans events out to websocket clients and in-process subscribers.
type RealtimeHub struct {
	mu          sync.RWMutex
	clients     map[*WSClient]struct{}
	subscribers map[chan Event]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{
		clients:     make(map[*WSClient]struct{}),
		subscribers: make(map[chan Event]struct{}),
	}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Subscribe returns a channel receiving every published event and a func
// that stops the subscription. Slow subscribers miss events.
func (h *RealtimeHub) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Publish never blocks; a client whose buffer is full is dropped.
func (h *RealtimeHub) Publish(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("encoding %s event: %v", ev.Kind, err)
		return
	}

	var slow []*WSClient
	h.mu.RLock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Debugf("dropping slow websocket client")
		h.Unregister(c)
	}
}

// ClientCount reports connected websocket clients.
func (h *RealtimeHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WritePump owns all writes to c.Conn until the client is unregistered.
func (h *RealtimeHub) WritePump(c *WSClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(c)
				return
			}
		}
	}
}

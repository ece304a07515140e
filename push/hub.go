package push

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"tailcart/models"
)

// Client is one connected UI socket, bound to its owner's room.
type Client struct {
	Send chan []byte
	Room string
	ID   string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

// Hub fans engine change events out to every socket the owner has open.
// One room per owner id.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

// eventPayload is what goes over the wire to the UI.
type eventPayload struct {
	Scope     string `json:"scope"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.rooms[c.Room]; conns != nil && conns[c] {
				delete(conns, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					close(c.Send)
					delete(h.rooms[m.Room], c)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for room, conns := range h.rooms {
				for c := range conns {
					close(c.Send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client send channel and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a client to its room.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast pushes one change event to every socket in the owner's room.
func (h *Hub) Broadcast(room string, ev models.ChangeEvent) {
	data, err := json.Marshal(eventPayload{
		Scope:     ev.Scope,
		Name:      ev.Name,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Println("push: marshal event error:", err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
	case <-h.done:
	}
}

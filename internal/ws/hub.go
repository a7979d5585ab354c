package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/urbanharvest/vending-api/internal/events"
)

// ErrHubClosed is returned by Publish once Run has exited.
var ErrHubClosed = errors.New("ws hub closed")

// machineMessage is an encoded event routed to one machine's room
type machineMessage struct {
	MachineID uuid.UUID
	Data      []byte
}

// Hub maintains the set of active clients per machine and broadcasts
// order and stock events to them
type Hub struct {
	// Registered clients by machine ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *machineMessage

	// Closed when Run returns
	done chan struct{}

	allowedOrigins map[string]bool
	logger         *slog.Logger

	mu sync.RWMutex
}

// NewHub creates a new Hub. An empty allowedOrigins list or a "*" entry
// accepts any origin.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:          make(map[uuid.UUID]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *machineMessage, 256),
		done:           make(chan struct{}),
		allowedOrigins: origins,
		logger:         logger,
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for machineID, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, machineID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.machineID] == nil {
				h.rooms[client.machineID] = make(map[*Client]bool)
			}
			h.rooms[client.machineID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.MachineID] {
				select {
				case client.send <- msg.Data:
				default:
					// Slow consumer, drop it
					h.logger.Warn("ws client send buffer full, disconnecting", "machine_id", msg.MachineID)
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// removeLocked drops a client and its empty room. Callers hold h.mu.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.machineID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.machineID)
	}
}

// Publish implements events.Publisher, sending the event to every client
// subscribed to its machine.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &machineMessage{MachineID: e.MachineID, Data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribers returns the number of clients connected for a machine.
func (h *Hub) Subscribers(machineID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[machineID])
}

func (h *Hub) checkOrigin(origin string) bool {
	if origin == "" || len(h.allowedOrigins) == 0 || h.allowedOrigins["*"] {
		return true
	}
	return h.allowedOrigins[origin]
}

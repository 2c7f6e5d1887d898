package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dennisdiepolder/workforce/internal/metrics"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and broadcasts call snapshots to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.sendInitial(client)
			metrics.Get().RecordWebSocketConnect()
			h.logger.Info().
				Str("client_id", client.id).
				Int("total_clients", total).
				Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropLocked(client)
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// Broadcast queues a raw message for every client
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// Publish broadcasts the full collection as a snapshot message
func (h *Hub) Publish(calls []types.Call) error {
	data, err := EncodeSnapshot(calls, time.Now())
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

func EncodeSnapshot(calls []types.Call, now time.Time) ([]byte, error) {
	return json.Marshal(types.NewSnapshot(calls, now))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
			metrics.Get().RecordWebSocketMessage()
		default:
			h.dropLocked(client)
			h.logger.Warn().
				Str("client_id", client.id).
				Msg("client send buffer full, closing connection")
		}
	}
}

// sendInitial queues the client's first snapshot. It runs on the hub loop
// after the client joined, so every later broadcast follows it.
func (h *Hub) sendInitial(client *Client) {
	if client.initial == nil {
		return
	}
	data, err := client.initial()
	if err != nil {
		h.logger.Error().Err(err).Str("client_id", client.id).Msg("failed to encode initial snapshot")
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn().Str("client_id", client.id).Msg("initial snapshot dropped, send buffer full")
	}
}

func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	close(client.send)
	metrics.Get().RecordWebSocketDisconnect()
}

package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

type outbound struct {
	to      model.PlayerID // zero value fans out to every client
	payload []byte
}

// Hub manages the websocket clients for a single lobby. Each player
// holds at most one live connection; registering a new one for the same
// player replaces and closes the old.
type Hub struct {
	lobby   model.LobbyName
	clients map[model.PlayerID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	outbox     chan outbound
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a lobby
func NewHub(lobby model.LobbyName, logger *slog.Logger) *Hub {
	return &Hub{
		lobby:      lobby,
		clients:    make(map[model.PlayerID]*Client),
		logger:     logger.With(slog.String("lobby", string(lobby))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbox:     make(chan outbound, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if prev, ok := h.clients[client.playerID]; ok {
				prev.replaced.Store(true)
				prev.closeSend()
			}
			h.clients[client.playerID] = client
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				slog.String("player_id", string(client.playerID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			// Only drop the registration if it still points at this
			// connection; a rebind may have replaced it already.
			if current, ok := h.clients[client.playerID]; ok && current == client {
				delete(h.clients, client.playerID)
				client.closeSend()
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("ws client unregistered",
					slog.String("player_id", string(client.playerID)),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.outbox:
			h.mu.RLock()
			for id, client := range h.clients {
				if msg.to != "" && msg.to != id {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					h.logger.Warn("ws message dropped - client buffer full",
						slog.String("player_id", string(id)))
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for id, client := range h.clients {
				client.closeSend()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register binds a client as its player's live connection
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client if it is still the player's live connection
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends an event to every client in the lobby
func (h *Hub) Broadcast(event any) {
	h.enqueue(outbound{payload: marshalEvent(h.logger, event)})
}

// SendTo sends an event to one player's connection only
func (h *Hub) SendTo(player model.PlayerID, event any) {
	h.enqueue(outbound{to: player, payload: marshalEvent(h.logger, event)})
}

func (h *Hub) enqueue(msg outbound) {
	if msg.payload == nil {
		return
	}
	select {
	case h.outbox <- msg:
	case <-h.done:
	default:
		h.logger.Warn("ws message dropped - hub buffer full")
	}
}

// CloseAll shuts down the hub and disconnects every client. Safe to
// call more than once.
func (h *Hub) CloseAll() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func marshalEvent(logger *slog.Logger, event any) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("ws event marshal failed", slog.String("error", err.Error()))
		return nil
	}
	return payload
}

// HubManager manages hubs for all lobbies
type HubManager struct {
	hubs   map[model.LobbyName]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.LobbyName]*Hub),
		logger: logger.With(slog.String("component", "ws")),
	}
}

// GetOrCreateHub returns the hub for a lobby, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(lobby model.LobbyName) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[lobby]; ok {
		return hub
	}

	hub := NewHub(lobby, m.logger)
	m.hubs[lobby] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a lobby, or nil if it doesn't exist
func (m *HubManager) GetHub(lobby model.LobbyName) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[lobby]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(lobby model.LobbyName) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[lobby]; ok {
		hub.CloseAll()
		delete(m.hubs, lobby)
		m.logger.Info("ws hub removed", slog.String("lobby", string(lobby)))
	}
}

package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/auth"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/session"
)

// Handler upgrades authenticated lobby connections to websockets and
// runs them until they drop
type Handler struct {
	sessions *session.Manager
	auth     *auth.Service
	hubs     *HubManager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new websocket handler
func NewHandler(sessions *session.Manager, auth *auth.Service, hubs *HubManager, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		auth:     auth,
		hubs:     hubs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from arbitrary origins; credentials
			// are checked per connection, not per origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeConnection handles GET /ws/{lobby}?token=...
func (h *Handler) ServeConnection(w http.ResponseWriter, r *http.Request) {
	lobby := model.LobbyName(mux.Vars(r)["lobby"])
	token := r.URL.Query().Get("token")

	cred, err := h.auth.Validate(r.Context(), token, lobby)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, model.ErrLobbyNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	sess, err := h.sessions.Get(lobby)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	hub := h.hubs.GetOrCreateHub(lobby)
	client := newClient(hub, conn, sess, cred.PlayerID, h.logger)
	hub.Register(client)
	go client.writePump()

	if err := sess.Connect(r.Context(), cred.PlayerID); err != nil {
		client.sendEvent(model.NewErrorEvent(err))
		hub.Unregister(client)
		conn.Close()
		return
	}

	client.readPump()
	hub.Unregister(client)

	switch {
	case client.leaveRequested:
		if err := h.sessions.LeaveLobby(context.Background(), lobby, cred.PlayerID); err != nil &&
			!errors.Is(err, model.ErrLobbyNotFound) {
			h.logger.Warn("leave failed",
				slog.String("lobby", string(lobby)),
				slog.String("error", err.Error()))
		}
	case !client.replaced.Load():
		if err := sess.Disconnect(context.Background(), cred.PlayerID); err != nil &&
			!errors.Is(err, model.ErrLobbyNotFound) &&
			!errors.Is(err, model.ErrPlayerNotFound) {
			h.logger.Warn("disconnect handling failed",
				slog.String("lobby", string(lobby)),
				slog.String("error", err.Error()))
		}
	}
}

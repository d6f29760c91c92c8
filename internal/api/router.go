package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/api/handler"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/api/middleware"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/auth"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/session"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	SessionManager *session.Manager
	HubManager     *ws.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	lobbyHandler := handler.NewLobbyHandler(cfg.SessionManager, cfg.AuthService)
	wsHandler := ws.NewHandler(cfg.SessionManager, cfg.AuthService, cfg.HubManager, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// REST surface: lobby lifecycle before the websocket binds
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/lobbies", lobbyHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/lobbies", lobbyHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/lobbies/{lobby}/join", lobbyHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/lobbies/{lobby}/leave", lobbyHandler.Leave).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Gameplay runs over the websocket; upgrades bypass the logging
	// wrapper's buffering via its Hijack passthrough
	wsRoute := r.PathPrefix("/ws").Subrouter()
	wsRoute.Use(middleware.Recovery(cfg.Logger))
	wsRoute.HandleFunc("/{lobby}", wsHandler.ServeConnection).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

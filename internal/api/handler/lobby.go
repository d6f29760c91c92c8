package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/api/request"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/api/response"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/auth"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/session"
)

// LobbyHandler handles the lobby lifecycle endpoints. Creating and
// joining happen over HTTP so the caller holds a credential before the
// websocket connects.
type LobbyHandler struct {
	sessions *session.Manager
	auth     *auth.Service
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(sessions *session.Manager, auth *auth.Service) *LobbyHandler {
	return &LobbyHandler{
		sessions: sessions,
		auth:     auth,
	}
}

// Create handles POST /api/v1/lobbies
func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	settings := model.DefaultSettings()
	if req.Settings != nil {
		settings = model.Settings{
			TimerSeconds: req.Settings.TimerSeconds,
			ScoreGoal:    req.Settings.ScoreGoal,
		}
	}

	lobby, host, cred, err := h.sessions.CreateLobby(
		r.Context(),
		model.LobbyName(req.Name),
		req.Password,
		req.Public,
		settings,
		req.Username,
	)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.JoinResponse{
		Lobby:    response.LobbyFromModel(lobby),
		PlayerID: string(host.ID),
		Token:    cred.Token,
	})
}

// Join handles POST /api/v1/lobbies/{lobby}/join
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	name := model.LobbyName(mux.Vars(r)["lobby"])

	var req request.JoinLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	lobby, player, cred, err := h.sessions.JoinLobby(
		r.Context(),
		name,
		req.Password,
		req.Username,
		req.Spectator,
		req.Token,
	)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinResponse{
		Lobby:    response.LobbyFromModel(lobby),
		PlayerID: string(player.ID),
		Token:    cred.Token,
	})
}

// Leave handles POST /api/v1/lobbies/{lobby}/leave
func (h *LobbyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	name := model.LobbyName(mux.Vars(r)["lobby"])

	var req request.LeaveLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	cred, err := h.auth.Validate(r.Context(), req.Token, name)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.sessions.LeaveLobby(r.Context(), name, cred.PlayerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// List handles GET /api/v1/lobbies
func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.sessions.ListPublicLobbies(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.LobbySummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, response.LobbySummaryFromModel(s))
	}
	response.JSON(w, http.StatusOK, response.LobbyListResponse{Lobbies: out})
}

package response

import (
	"time"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
	"github.com/LeGioNSoftware/MonkeyPaw/internal/services/registry"
)

// Settings represents lobby settings in API responses
type Settings struct {
	TimerSeconds int `json:"timer_seconds"`
	ScoreGoal    int `json:"score_goal"`
}

// SettingsFromModel converts model.Settings
func SettingsFromModel(s model.Settings) Settings {
	return Settings{
		TimerSeconds: s.TimerSeconds,
		ScoreGoal:    s.ScoreGoal,
	}
}

// Player represents a lobby member in API responses
type Player struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"is_host"`
	IsSpectator bool   `json:"spectator,omitempty"`
	Connected   bool   `json:"connected"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		Username:    p.Username,
		Score:       p.Score,
		IsHost:      p.IsHost,
		IsSpectator: p.IsSpectator,
		Connected:   p.Connected,
	}
}

// Lobby represents a lobby in API responses
type Lobby struct {
	Name     string   `json:"name"`
	Public   bool     `json:"public"`
	Phase    string   `json:"phase"`
	Settings Settings `json:"settings"`
	Players  []Player `json:"players"`
}

// LobbyFromModel converts model.Lobby
func LobbyFromModel(l *model.Lobby) Lobby {
	players := make([]Player, len(l.Players))
	for i, p := range l.Players {
		players[i] = PlayerFromModel(p)
	}
	return Lobby{
		Name:     string(l.Name),
		Public:   l.Public,
		Phase:    string(l.Phase()),
		Settings: SettingsFromModel(l.Settings),
		Players:  players,
	}
}

// JoinResponse is the response for lobby creation and joining. The
// token authenticates the subsequent websocket connection.
type JoinResponse struct {
	Lobby    Lobby  `json:"lobby"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

// LobbySummary is one entry in the public lobby listing
type LobbySummary struct {
	Name        string    `json:"name"`
	PlayerCount int       `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// LobbySummaryFromModel converts a registry listing entry
func LobbySummaryFromModel(s registry.LobbySummary) LobbySummary {
	return LobbySummary{
		Name:        string(s.Name),
		PlayerCount: s.PlayerCount,
		CreatedAt:   s.CreatedAt,
	}
}

// LobbyListResponse is the public lobby listing
type LobbyListResponse struct {
	Lobbies []LobbySummary `json:"lobbies"`
}

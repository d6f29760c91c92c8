package model

import "time"

// LobbyName is the human-readable identifier players use to join a lobby.
// Uniqueness among active lobbies is enforced at creation.
type LobbyName string

// Settings holds the configurable rules for games in a lobby
type Settings struct {
	TimerSeconds int // deadline for the wish, submission and voting phases
	ScoreGoal    int // score that ends the game
}

// DefaultSettings returns the default lobby settings
func DefaultSettings() Settings {
	return Settings{
		TimerSeconds: 60,
		ScoreGoal:    5,
	}
}

// Lobby represents a named game room and its members
type Lobby struct {
	Name         LobbyName
	PasswordHash string // bcrypt, empty for open lobbies
	Public       bool   // listed in the public lobby index
	Settings     Settings
	Players      []*Player // stable join order; rotation order for the wisher role
	Round        *Round    // nil while waiting for a game to start
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Phase returns the lobby's current round phase, PhaseWaiting when no
// round is active.
func (l *Lobby) Phase() Phase {
	if l.Round == nil {
		return PhaseWaiting
	}
	return l.Round.Phase
}

// GetPlayer returns the member with the given ID, or nil if not found
func (l *Lobby) GetPlayer(id PlayerID) *Player {
	for _, p := range l.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host returns the current host, or nil if none
func (l *Lobby) Host() *Player {
	for _, p := range l.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// ActivePlayers returns all non-spectator members in join order
func (l *Lobby) ActivePlayers() []*Player {
	var active []*Player
	for _, p := range l.Players {
		if p.Eligible() {
			active = append(active, p)
		}
	}
	return active
}

// ConnectedCount returns how many members currently have a live connection
func (l *Lobby) ConnectedCount() int {
	n := 0
	for _, p := range l.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// EligibleResponders returns the non-spectator, connected members other
// than the wisher, i.e. the players expected to submit and vote this round.
func (l *Lobby) EligibleResponders(wisherID PlayerID) []*Player {
	var eligible []*Player
	for _, p := range l.Players {
		if p.Eligible() && p.Connected && p.ID != wisherID {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

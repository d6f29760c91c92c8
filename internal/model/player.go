package model

import "time"

// PlayerID uniquely identifies a player across the system.
// It is a UUID and survives reconnects; only the transport
// connection bound to it changes.
type PlayerID string

// Player represents a lobby member
type Player struct {
	ID          PlayerID
	Username    string
	Score       int
	IsHost      bool
	IsSpectator bool
	Connected   bool
	JoinedAt    time.Time
}

// Eligible reports whether the player takes part in rounds at all.
// Spectators never submit, vote, or become wisher.
func (p *Player) Eligible() bool {
	return !p.IsSpectator
}

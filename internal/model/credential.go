package model

import "time"

// Credential is the opaque bearer token a client presents on every
// connection to bind back to its Player. One credential per player per
// lobby; it lives as long as the lobby does.
type Credential struct {
	Token    string
	Lobby    LobbyName
	PlayerID PlayerID
	IssuedAt time.Time
}

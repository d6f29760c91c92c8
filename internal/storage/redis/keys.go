package redis

import (
	"fmt"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "monkeypaw"

// lobbyKey returns the Redis key for a Lobby
func lobbyKey(name model.LobbyName) string {
	return fmt.Sprintf("%s:lobby:%s", keyPrefix, name)
}

// lobbyIndexKey returns the Redis key for the SET of active lobby names
func lobbyIndexKey() string {
	return fmt.Sprintf("%s:idx:lobbies", keyPrefix)
}

// credentialKey returns the Redis key for a Credential
func credentialKey(token string) string {
	return fmt.Sprintf("%s:credential:%s", keyPrefix, token)
}

// credentialsForLobbyIndexKey returns the Redis key for the SET of
// credential tokens issued for a lobby
func credentialsForLobbyIndexKey(name model.LobbyName) string {
	return fmt.Sprintf("%s:idx:credentials_for_lobby:%s", keyPrefix, name)
}

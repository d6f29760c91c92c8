package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Lobbies and their credentials share a TTL so a
	// dormant lobby expires as one unit.
	LobbyTTL      time.Duration
	CredentialTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		LobbyTTL:      24 * time.Hour,
		CredentialTTL: 24 * time.Hour,
	}
}

package request

// Settings carries lobby settings in request bodies
type Settings struct {
	TimerSeconds int `json:"timer_seconds"`
	ScoreGoal    int `json:"score_goal"`
}

// CreateLobbyRequest is the request body for creating a lobby
type CreateLobbyRequest struct {
	Name     string    `json:"name"`
	Password string    `json:"password,omitempty"`
	Public   bool      `json:"public"`
	Username string    `json:"username"`
	Settings *Settings `json:"settings,omitempty"`
}

// JoinLobbyRequest is the request body for joining a lobby
type JoinLobbyRequest struct {
	Password  string `json:"password,omitempty"`
	Username  string `json:"username"`
	Spectator bool   `json:"spectator,omitempty"`
	// Token lets a returning player reclaim their seat instead of
	// joining as a new player
	Token string `json:"token,omitempty"`
}

// LeaveLobbyRequest is the request body for leaving a lobby
type LeaveLobbyRequest struct {
	Token string `json:"token"`
}

package model

// EventType identifies a server-to-client event
type EventType string

const (
	EventStateSync           EventType = "state_sync"
	EventPlayersUpdate       EventType = "players_update"
	EventSettingsUpdate      EventType = "settings_update"
	EventGameStarted         EventType = "game_started"
	EventRoundStarted        EventType = "round_started"
	EventWishSet             EventType = "wish_set"
	EventSubmissionsUpdate   EventType = "submissions_update"
	EventSubmissionsRevealed EventType = "submissions_revealed"
	EventVotesUpdate         EventType = "votes_update"
	EventRoundEnd            EventType = "round_end"
	EventGameOver            EventType = "game_over"
	EventRoundAbandoned      EventType = "round_abandoned"
	EventError               EventType = "error"
)

// PlayerInfo is the wire representation of a lobby member
type PlayerInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"is_host"`
	IsSpectator bool   `json:"spectator"`
	Connected   bool   `json:"connected"`
}

// PlayerInfoFromModel converts a Player to its wire form
func PlayerInfoFromModel(p *Player) PlayerInfo {
	return PlayerInfo{
		ID:          string(p.ID),
		Username:    p.Username,
		Score:       p.Score,
		IsHost:      p.IsHost,
		IsSpectator: p.IsSpectator,
		Connected:   p.Connected,
	}
}

// SettingsInfo is the wire representation of lobby settings
type SettingsInfo struct {
	TimerSeconds int `json:"timer_seconds"`
	ScoreGoal    int `json:"score_goal"`
}

// SettingsInfoFromModel converts Settings to its wire form
func SettingsInfoFromModel(s Settings) SettingsInfo {
	return SettingsInfo{
		TimerSeconds: s.TimerSeconds,
		ScoreGoal:    s.ScoreGoal,
	}
}

// RoundInfo is the wire representation of a round
type RoundInfo struct {
	Index    int    `json:"index"`
	WisherID string `json:"wisher_id"`
	Phase    string `json:"phase"`
	Wish     string `json:"wish,omitempty"`
}

// RoundInfoFromModel converts a Round to its wire form
func RoundInfoFromModel(r *Round) RoundInfo {
	return RoundInfo{
		Index:    r.Index,
		WisherID: string(r.WisherID),
		Phase:    string(r.Phase),
		Wish:     r.Wish,
	}
}

// SubmissionInfo is the anonymized wire form of a submission. The
// author id is included so clients can address votes, but usernames
// are never attached until round_end.
type SubmissionInfo struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

// Server-to-client event payloads. Every event carries its type in the
// envelope so clients can switch on a single field.

// StateSyncEvent is the full-state snapshot sent to a (re)connecting client
type StateSyncEvent struct {
	Type        EventType        `json:"type"`
	PlayerID    string           `json:"player_id"`
	Players     []PlayerInfo     `json:"players"`
	Settings    SettingsInfo     `json:"settings"`
	Round       *RoundInfo       `json:"round,omitempty"`
	Submissions []SubmissionInfo `json:"submissions,omitempty"`
}

// PlayersUpdateEvent carries the full member list
type PlayersUpdateEvent struct {
	Type    EventType    `json:"type"`
	Players []PlayerInfo `json:"players"`
}

// SettingsUpdateEvent carries changed lobby settings
type SettingsUpdateEvent struct {
	Type     EventType    `json:"type"`
	Settings SettingsInfo `json:"settings"`
}

// GameStartedEvent announces the first round
type GameStartedEvent struct {
	Type  EventType `json:"type"`
	Round RoundInfo `json:"round"`
}

// RoundStartedEvent announces a subsequent round and its wisher
type RoundStartedEvent struct {
	Type  EventType `json:"type"`
	Round RoundInfo `json:"round"`
}

// WishSetEvent announces the wisher's prompt
type WishSetEvent struct {
	Type  EventType `json:"type"`
	Round RoundInfo `json:"round"`
	Wish  string    `json:"wish"`
}

// SubmissionsUpdateEvent carries submission progress, counts only
type SubmissionsUpdateEvent struct {
	Type  EventType `json:"type"`
	Count int       `json:"count"`
	Total int       `json:"total"`
}

// SubmissionsRevealedEvent carries the anonymized submission set once
// collection completes
type SubmissionsRevealedEvent struct {
	Type        EventType        `json:"type"`
	Submissions []SubmissionInfo `json:"submissions"`
}

// VotesUpdateEvent carries voting progress, counts only
type VotesUpdateEvent struct {
	Type  EventType `json:"type"`
	Count int       `json:"count"`
	Total int       `json:"total"`
}

// RoundEndEvent announces the round winner, scores and submissions
type RoundEndEvent struct {
	Type        EventType        `json:"type"`
	Winner      PlayerInfo       `json:"winner"`
	Scores      map[string]int   `json:"scores"`
	Submissions []SubmissionInfo `json:"submissions"`
}

// GameOverEvent announces the game winner
type GameOverEvent struct {
	Type   EventType  `json:"type"`
	Winner PlayerInfo `json:"winner"`
}

// RoundAbandonedEvent signals the round was abandoned back to waiting
type RoundAbandonedEvent struct {
	Type EventType `json:"type"`
}

// ErrorEvent is sent to the offending connection only
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// NewErrorEvent builds an error event from a model error
func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{
		Type:    EventError,
		Kind:    Kind(err),
		Message: err.Error(),
	}
}

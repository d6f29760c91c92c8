package model

import "sort"

// Phase is one state in the per-lobby round state machine
type Phase string

const (
	PhaseWaiting       Phase = "waiting"        // pre-game, no round active
	PhaseWishPending   Phase = "wish_pending"   // waiting for the wisher's prompt
	PhaseCollecting    Phase = "collecting"     // gathering anonymous consequences
	PhaseVoting        Phase = "voting"         // gathering votes
	PhaseRoundResolved Phase = "round_resolved" // winner decided, about to rotate
	PhaseGameOver      Phase = "game_over"      // terminal
)

// Submission is a player's anonymous consequence for the current wish.
// Order is the arrival sequence within the round and doubles as the
// deterministic tie-break key at resolution.
type Submission struct {
	PlayerID PlayerID
	Text     string
	Order    int
}

// Round holds one round's state. A Round belongs to exactly one Lobby
// and is replaced, never reused, when the next round begins.
type Round struct {
	Index       int
	WisherID    PlayerID
	Phase       Phase
	Wish        string
	Submissions map[PlayerID]*Submission
	Votes       map[PlayerID]PlayerID // voter -> submission author
}

// NewRound creates a fresh round in the wish_pending phase
func NewRound(index int, wisher PlayerID) *Round {
	return &Round{
		Index:       index,
		WisherID:    wisher,
		Phase:       PhaseWishPending,
		Submissions: make(map[PlayerID]*Submission),
		Votes:       make(map[PlayerID]PlayerID),
	}
}

// SubmissionsInOrder returns the round's submissions sorted by arrival
func (r *Round) SubmissionsInOrder() []*Submission {
	subs := make([]*Submission, 0, len(r.Submissions))
	for _, s := range r.Submissions {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Order < subs[j].Order })
	return subs
}

// Tally counts votes per submission author
func (r *Round) Tally() map[PlayerID]int {
	tally := make(map[PlayerID]int)
	for _, target := range r.Votes {
		tally[target]++
	}
	return tally
}

package model

import "errors"

// Common errors used across the application
var (
	// Validation errors
	ErrValidation = errors.New("malformed or unknown message")

	// Lobby errors
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrLobbyExists      = errors.New("lobby name already taken")
	ErrWrongPassword    = errors.New("wrong lobby password")
	ErrNotHost          = errors.New("player is not the host")
	ErrNotEnoughPlayers = errors.New("not enough players to start")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrSpectator      = errors.New("spectators cannot perform this action")

	// Round errors
	ErrWrongPhase       = errors.New("action not valid in current phase")
	ErrNotWisher        = errors.New("player is not the current wisher")
	ErrWisherCannotAct  = errors.New("the wisher cannot submit or vote")
	ErrAlreadySubmitted = errors.New("player already submitted this round")
	ErrAlreadyVoted     = errors.New("player already voted this round")
	ErrNoSuchTarget     = errors.New("vote target has no submission")
	ErrSelfVote         = errors.New("players cannot vote for their own submission")

	// Credential errors
	ErrInvalidCredential = errors.New("invalid credential")
)

// ErrorKind is the machine-readable error class carried on the wire
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindForbidden  ErrorKind = "forbidden"
	KindState      ErrorKind = "state"
)

// Kind classifies an error into the wire taxonomy. Unrecognized errors
// map to validation, the catch-all for client mistakes.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrLobbyNotFound), errors.Is(err, ErrPlayerNotFound), errors.Is(err, ErrNoSuchTarget):
		return KindNotFound
	case errors.Is(err, ErrLobbyExists), errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrAlreadyVoted):
		return KindConflict
	case errors.Is(err, ErrWrongPassword), errors.Is(err, ErrNotHost), errors.Is(err, ErrNotWisher),
		errors.Is(err, ErrWisherCannotAct), errors.Is(err, ErrSpectator), errors.Is(err, ErrSelfVote),
		errors.Is(err, ErrInvalidCredential):
		return KindForbidden
	case errors.Is(err, ErrWrongPhase), errors.Is(err, ErrNotEnoughPlayers):
		return KindState
	default:
		return KindValidation
	}
}

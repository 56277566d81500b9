package event

import (
	"encoding/json"
	"time"
)

// GameReadyEvent is published when a captain finished the lobby wizard and the
// compiled game config is stored.
type GameReadyEvent struct {
	// Code is the uppercase game code.
	Code string `json:"code"`
	// Name is the game name chosen by the captain.
	Name string `json:"name"`
	// CreatedAt is when the game was stored.
	CreatedAt time.Time `json:"created_at"`
	// Config is the compiled game config in its interchange format.
	Config json.RawMessage `json:"config"`
}

// LookupRequestEvent is used by operators in order to request the game with the
// given code.
type LookupRequestEvent struct {
	// RequestID is an id chosen by the requester for matching the response.
	RequestID string `json:"request_id"`
	// Code is the game code to look up. Case does not matter.
	Code string `json:"code"`
}

// LookupResponseEvent is the response for a LookupRequestEvent.
type LookupResponseEvent struct {
	// RequestID is the id from LookupRequestEvent.
	RequestID string `json:"request_id"`
	// Code is the normalized game code.
	Code string `json:"code"`
	// Record is the stored game record if found and ready.
	Record json.RawMessage `json:"record,omitempty"`
	// Error is set if the lookup failed.
	Error *ErrorEventPayload `json:"error,omitempty"`
}

// PlayerMatchResult is the result of one registered player in a match.
type PlayerMatchResult struct {
	// UserID is the id of the user at the identity provider.
	UserID string `json:"user_id"`
	Kills  int    `json:"kills"`
	Deaths int    `json:"deaths"`
	// Won describes whether the player was on the winning side.
	Won   bool `json:"won"`
	Score int  `json:"score"`
}

// MatchResultEvent is published by the VR engine after a match ended.
type MatchResultEvent struct {
	// GameCode is the code of the game that was played.
	GameCode string              `json:"game_code"`
	Results  []PlayerMatchResult `json:"results"`
}

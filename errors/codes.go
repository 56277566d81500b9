package errors

type Code string

const (
	ErrAborted           Code = "aborted"
	ErrBadRequest        Code = "bad-request"
	ErrCommunication     Code = "communication"
	ErrProtocolViolation Code = "protocol-violation"
	ErrFatal             Code = "fatal"
	ErrNotFound          Code = "not-found"
	// ErrNotReady is used when a resource exists but is not usable yet, like a
	// game whose captain has not finished setup.
	ErrNotReady   Code = "not-ready"
	ErrInternal   Code = "internal"
	ErrUnexpected Code = "unexpected"
)

type Kind string

const (
	// KindBlankName is used when a required name is empty after trimming.
	KindBlankName Kind = "blank-name"
	// KindCache is used for failed operations regarding the lookup cache.
	KindCache Kind = "cache"
	// KindContextAborted is used when we were currently performing an operation but
	// the context got aborted.
	KindContextAborted Kind = "context-aborted"
	KindDB             Kind = "db"
	KindDecodeJSON     Kind = "decode-json"
	// KindDuplicateCode is used when a game code is already taken in the store.
	KindDuplicateCode Kind = "duplicate-code"
	// KindEmptyTeam is used when a team of a team mode has no members.
	KindEmptyTeam  Kind = "empty-team"
	KindEncodeJSON Kind = "encode-json"
	// KindForbiddenMessage is used when the protocol is being violated due to a
	// message with currently forbidden type.
	KindForbiddenMessage Kind = "forbidden-message"
	// KindGameNotFound is used when no game exists for a looked up code.
	KindGameNotFound Kind = "game-not-found"
	// KindGameNotReady is used when a game was found but its status is not ready.
	KindGameNotReady Kind = "game-not-ready"
	// KindInvalidBooking is used for booking requests with invalid date, time,
	// duration or player count.
	KindInvalidBooking Kind = "invalid-booking"
	// KindInvalidCode is used for malformed game codes.
	KindInvalidCode Kind = "invalid-code"
	// KindInvalidLimit is used for out-of-range list limits in requests.
	KindInvalidLimit Kind = "invalid-limit"
	// KindInvalidMaxPlayers is used when the max player count is out of bounds.
	KindInvalidMaxPlayers Kind = "invalid-max-players"
	// KindInvalidProfile is used for profile updates with out-of-range values.
	KindInvalidProfile Kind = "invalid-profile"
	KindInvalidToken   Kind = "invalid-token"
	// KindLookupTransport is used when the store failed while looking up a game.
	KindLookupTransport Kind = "lookup-transport"
	KindMalformedID     Kind = "malformed-id"
	KindMissingToken    Kind = "missing-token"
	// KindPersistenceFailure is used when writing to the store failed.
	KindPersistenceFailure Kind = "persistence-failure"
	// KindProfileIncomplete is used when a user with incomplete profile wants to
	// perform an action that requires a complete one.
	KindProfileIncomplete Kind = "profile-incomplete"
	KindResourceNotFound  Kind = "resource-not-found"
	// KindRosterFull is used when a player is added although max players are
	// reached.
	KindRosterFull Kind = "roster-full"
	// KindRosterTooSmall is used when the roster has less than the minimum amount
	// of players.
	KindRosterTooSmall Kind = "roster-too-small"
	// KindSubmissionInFlight is used when a wizard is submitted while a previous
	// submission is still running.
	KindSubmissionInFlight Kind = "submission-in-flight"
	// KindTeamOutOfRange is used when a team index is not valid for the selected
	// game mode.
	KindTeamOutOfRange Kind = "team-out-of-range"
	KindUnexpected     Kind = "unexpected"
	// KindUnknownGameMode is used for game mode keys not in the catalog.
	KindUnknownGameMode Kind = "unknown-game-mode"
	// KindUnknownLeaderboard is used for unknown leaderboard categories.
	KindUnknownLeaderboard Kind = "unknown-leaderboard"
	// KindUnknownMap is used for map ids not in the catalog.
	KindUnknownMap Kind = "unknown-map"
	// KindUnknownPlayer is used when a roster operation references an unknown
	// player.
	KindUnknownPlayer Kind = "unknown-player"
	// KindWizardStepViolation is used for wizard operations that are not allowed
	// in the current step.
	KindWizardStepViolation Kind = "wizard-step-violation"
)

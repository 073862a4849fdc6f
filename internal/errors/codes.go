// Package errors provides structured error handling for the protocol engine.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Client errors
	CodeClientNotAuthorized  Code = "CLIENT_NOT_AUTHORIZED"
	CodeClientMuted          Code = "CLIENT_MUTED"
	CodeClientBadTarget      Code = "CLIENT_BAD_TARGET"
	CodeClientCharTaken      Code = "CLIENT_CHAR_TAKEN"
	CodeClientAlreadyInArea  Code = "CLIENT_ALREADY_IN_AREA"
	CodeClientBadPassword    Code = "CLIENT_BAD_PASSWORD"
	CodeClientStateConflict  Code = "CLIENT_STATE_CONFLICT"
	CodeClientInvalidRequest Code = "CLIENT_INVALID_REQUEST"

	// Area errors
	CodeAreaLocked          Code = "AREA_LOCKED"
	CodeAreaNotFound        Code = "AREA_NOT_FOUND"
	CodeAreaBadBackground   Code = "AREA_BAD_BACKGROUND"
	CodeAreaBadStatus       Code = "AREA_BAD_STATUS"
	CodeAreaBadPenaltyBar   Code = "AREA_BAD_PENALTY_BAR"
	CodeAreaNoFreeCharacter Code = "AREA_NO_FREE_CHARACTER"
	CodeAreaBGLocked        Code = "AREA_BACKGROUND_LOCKED"

	// Poll errors
	CodePollNotFound  Code = "POLL_NOT_FOUND"
	CodePollBadChoice Code = "POLL_BAD_CHOICE"

	// Argument errors
	CodeArgumentMissing Code = "ARGUMENT_MISSING"
	CodeArgumentInvalid Code = "ARGUMENT_INVALID"
	CodeArgumentExtra   Code = "ARGUMENT_EXTRA"

	// Server errors
	CodeSongNotFound   Code = "SERVER_SONG_NOT_FOUND"
	CodeCharNotFound   Code = "SERVER_CHAR_NOT_FOUND"
	CodeBanBadIdentity Code = "SERVER_BAN_BAD_IDENTITY"
	CodeDataMissing    Code = "SERVER_DATA_MISSING"
	CodeStorage        Code = "SERVER_STORAGE"
)

// Kind buckets codes by how the message pipeline surfaces them.
type Kind int

const (
	// KindServer covers collaborator and server-state failures.
	KindServer Kind = iota
	// KindClient covers invalid actions by the issuing client.
	KindClient
	// KindArea covers room-level precondition failures.
	KindArea
	// KindArgument covers malformed command arguments.
	KindArgument
)

// Kind maps a domain code to its notice kind.
func (c Code) Kind() Kind {
	switch c {
	case CodeClientNotAuthorized,
		CodeClientMuted,
		CodeClientBadTarget,
		CodeClientCharTaken,
		CodeClientAlreadyInArea,
		CodeClientBadPassword,
		CodeClientStateConflict,
		CodeClientInvalidRequest,
		CodePollBadChoice:
		return KindClient
	case CodeAreaLocked,
		CodeAreaNotFound,
		CodeAreaBadBackground,
		CodeAreaBadStatus,
		CodeAreaBadPenaltyBar,
		CodeAreaNoFreeCharacter,
		CodeAreaBGLocked:
		return KindArea
	case CodeArgumentMissing,
		CodeArgumentInvalid,
		CodeArgumentExtra:
		return KindArgument
	default:
		return KindServer
	}
}

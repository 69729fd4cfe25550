package sharedtypes

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, machine readable name of a round rejection. It is
// what handlers put in failure payloads and what metrics are labelled with.
type ErrorCode string

const (
	CodeMalformedRound           ErrorCode = "MALFORMED_ROUND"
	CodeNoGameSpecified          ErrorCode = "NO_GAME_SPECIFIED"
	CodeUnrecognizedToken        ErrorCode = "UNRECOGNIZED_TOKEN"
	CodeUnknownPlayer            ErrorCode = "UNKNOWN_PLAYER"
	CodeNoPlayers                ErrorCode = "NO_PLAYERS"
	CodeDuplicatePlayer          ErrorCode = "DUPLICATE_PLAYER"
	CodeLedgerInvariantViolation ErrorCode = "LEDGER_INVARIANT_VIOLATION"
	CodeSessionPoisoned          ErrorCode = "SESSION_POISONED"
)

var (
	// ErrMalformedRound means the round text is missing its game or player fragment.
	ErrMalformedRound = errors.New("malformed round")

	// ErrNoGameSpecified means the game fragment never named a game variant.
	ErrNoGameSpecified = errors.New("no game specified")

	// ErrUnrecognizedToken means a game or player token matched no category.
	ErrUnrecognizedToken = errors.New("unrecognized token")

	// ErrUnknownPlayer means a name did not resolve in the player directory.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrNoPlayers means the round listed no players.
	ErrNoPlayers = errors.New("no players in round")

	// ErrDuplicatePlayer means the same player was listed twice in one round.
	ErrDuplicatePlayer = errors.New("player listed twice in round")

	// ErrLedgerInvariantViolation is fatal for the session: a commit found a
	// player without ledger entries.
	ErrLedgerInvariantViolation = errors.New("ledger invariant violation")

	// ErrSessionPoisoned is returned for every round after a fatal error.
	ErrSessionPoisoned = errors.New("session poisoned by earlier invariant violation")
)

var codes = map[error]ErrorCode{
	ErrMalformedRound:           CodeMalformedRound,
	ErrNoGameSpecified:          CodeNoGameSpecified,
	ErrUnrecognizedToken:        CodeUnrecognizedToken,
	ErrUnknownPlayer:            CodeUnknownPlayer,
	ErrNoPlayers:                CodeNoPlayers,
	ErrDuplicatePlayer:          CodeDuplicatePlayer,
	ErrLedgerInvariantViolation: CodeLedgerInvariantViolation,
	ErrSessionPoisoned:          CodeSessionPoisoned,
}

// RoundError describes why a round was rejected. Err is one of the sentinels
// above so callers can match with errors.Is.
type RoundError struct {
	Code    ErrorCode
	Token   string
	Message string
	Err     error
}

// NewRoundError builds a RoundError for sentinel. token is the offending
// input, if any.
func NewRoundError(sentinel error, token, format string, args ...any) *RoundError {
	return &RoundError{
		Code:    codes[sentinel],
		Token:   token,
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
}

func (e *RoundError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Err, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Message)
}

func (e *RoundError) Unwrap() error { return e.Err }

// CodeOf returns the ErrorCode carried by err, or "" if err is not a round error.
func CodeOf(err error) ErrorCode {
	var re *RoundError
	if errors.As(err, &re) {
		return re.Code
	}
	for sentinel, code := range codes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}

// IsRecoverable reports whether err rejects only the current round. Fatal
// ledger errors and errors outside the round taxonomy are not recoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrLedgerInvariantViolation) || errors.Is(err, ErrSessionPoisoned) {
		return false
	}
	return CodeOf(err) != ""
}

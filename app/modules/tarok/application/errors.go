package tarokengine

import "errors"

var (
	// ErrStaleRound is returned by Apply when another round was committed
	// after the round was prepared.
	ErrStaleRound = errors.New("prepared round is stale")

	// ErrEnded is returned for rounds submitted after End.
	ErrEnded = errors.New("game already ended")
)

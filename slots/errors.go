package slots

import "errors"

var (
	// ErrCapacityExceeded indicates a reservation would take the table past its limit.
	ErrCapacityExceeded = errors.New("slots: capacity exceeded")

	// ErrNoDestroyer indicates Clean found occupied slots of a kind with no registered destroyer.
	ErrNoDestroyer = errors.New("slots: no destroyer for kind")
)

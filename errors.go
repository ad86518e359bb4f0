package region

import "errors"

var (
	// ErrOutOfMemory indicates the backing buffer could not be obtained from the system.
	ErrOutOfMemory = errors.New("region: out of memory")

	// ErrCapacityExhausted indicates an allocation did not fit in the remaining capacity.
	ErrCapacityExhausted = errors.New("region: capacity exhausted")
)

package vec

import "errors"

var (
	// ErrCapacityOverflow indicates the next buffer size does not fit in an int.
	ErrCapacityOverflow = errors.New("vec: capacity overflow")

	// ErrAllocationFailure indicates the allocator could not provide the buffer.
	// The returned error also wraps the allocator's own error.
	ErrAllocationFailure = errors.New("vec: allocation failure")
)

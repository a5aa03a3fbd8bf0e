package alloc

import "errors"

var (
	// ErrAllocFailed indicates the backend could not satisfy the requested layout.
	ErrAllocFailed = errors.New("alloc: allocation failed")

	// ErrInvalidLayout indicates a zero size, a non power-of-two alignment, or a
	// size that overflows once rounded up to its alignment.
	ErrInvalidLayout = errors.New("alloc: invalid layout")

	// ErrUnsupported indicates the backend is not available on this platform.
	ErrUnsupported = errors.New("alloc: unsupported on this platform")

	// ErrUnknownAllocator indicates ByName was given a name with no backend.
	ErrUnknownAllocator = errors.New("alloc: unknown allocator")
)

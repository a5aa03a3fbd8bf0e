//go:build !malloc_cgo

package alloc

// MallocAllocator falls back to the Go heap when built without the
// malloc_cgo tag.
type MallocAllocator struct {
	HeapAllocator
}

// Malloc is the shared MallocAllocator.
var Malloc = &MallocAllocator{}

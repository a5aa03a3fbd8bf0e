// Package alloc provides the byte-level allocators that back vec.Array buffers.
//
// # Overview
//
// An Allocator hands out raw, aligned regions keyed on a Layout, the
// (size, alignment) pair that must be presented again, unchanged, when the
// region is resized or freed:
//
//   - Allocate(layout): a fresh region
//   - Reallocate(p, old, newSize): resize, preserving the common prefix
//   - Free(p, layout): release
//
// # Implementations
//
// HeapAllocator: Go heap backed, the default
//
//   - []byte regions padded for alignment
//   - Reallocate always moves and copies
//   - Free is a no-op, the garbage collector reclaims the region
//
// MmapAllocator: one anonymous mapping per region
//
//   - page aligned, alignments above the page size are rejected
//   - Linux resizes with mremap(MREMAP_MAYMOVE), other Unix systems remap and copy
//   - unavailable (ErrUnsupported) outside Unix
//
// MallocAllocator: the C heap
//
//   - malloc/realloc/free, posix_memalign for over-aligned layouts
//   - only with the malloc_cgo build tag, otherwise it is HeapAllocator
//
// Backends can be looked up by name:
//
//	a, err := alloc.ByName("mmap")
//	if err != nil {
//	    return err
//	}
//	arr := vec.New[uint64](a)
//	defer arr.Release()
//
// # Memory Visibility
//
// Regions from Mmap and Malloc live outside the Go heap, and Heap regions are
// untyped bytes. The garbage collector does not scan any of them, so they must
// only hold pointer-free data.
//
// # Thread Safety
//
// The shared backends hold no mutable state and may be used from any
// goroutine. Callers own the regions they receive and must not free a region
// twice.
//
// # Related Packages
//
//   - github.com/joshuapare/rawvec/vec: the growable array built on Allocator
//   - github.com/joshuapare/rawvec/alloc/track: accounting and fault injection
package alloc

//go:generate mockgen -source=types.go -destination=mock_alloc/allocator.go -package=mock_alloc

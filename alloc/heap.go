package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/rawvec/internal/buf"
)

// HeapAllocator serves regions from the Go heap. Each region is a []byte
// padded so the returned pointer can be aligned; the interior pointer keeps the
// whole backing array alive, so Free only has to drop it.
type HeapAllocator struct{}

// Heap is the shared HeapAllocator. It holds no state.
var Heap = &HeapAllocator{}

// Default is the allocator vec.New uses when given nil.
var Default Allocator = Heap

// Allocate returns l.Size zeroed bytes aligned to l.Align.
func (a *HeapAllocator) Allocate(l Layout) (unsafe.Pointer, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	return heapAlloc(l)
}

// Reallocate always moves: it allocates newSize bytes and copies the prefix.
func (a *HeapAllocator) Reallocate(p unsafe.Pointer, old Layout, newSize uintptr) (unsafe.Pointer, error) {
	nl := old.WithSize(newSize)
	if err := nl.validate(); err != nil {
		return nil, err
	}
	np, err := heapAlloc(nl)
	if err != nil {
		return nil, err
	}
	copy(unsafe.Slice((*byte)(np), newSize), unsafe.Slice((*byte)(p), min(old.Size, newSize)))
	return np, nil
}

// Free is a no-op; the region is reclaimed by the garbage collector once the
// caller drops p.
func (a *HeapAllocator) Free(unsafe.Pointer, Layout) {}

func heapAlloc(l Layout) (p unsafe.Pointer, err error) {
	padded, ok := buf.AddUintptr(l.Size, l.Align-1)
	if !ok {
		return nil, fmt.Errorf("%w: %v: padded size overflows", ErrAllocFailed, l)
	}
	// make panics with a runtime error for lengths the heap cannot serve.
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: %v: %v", ErrAllocFailed, l, r)
		}
	}()
	b := make([]byte, padded)
	base := unsafe.Pointer(unsafe.SliceData(b))
	if buf.Aligned(uintptr(base), l.Align) {
		return base, nil
	}
	shift := l.Align - uintptr(base)&(l.Align-1)
	return unsafe.Add(base, shift), nil
}

//go:build malloc_cgo

package alloc

// #include <stdlib.h>
// #include <string.h>
import "C"

import (
	"fmt"
	"unsafe"
)

// maxMallocAlign is the alignment malloc and realloc guarantee on the
// platforms we build for (alignof(max_align_t)).
const maxMallocAlign = 16

// MallocAllocator serves regions from the C heap.
type MallocAllocator struct{}

// Malloc is the shared MallocAllocator. It holds no state.
var Malloc = &MallocAllocator{}

// Allocate calls malloc, or posix_memalign for over-aligned layouts.
func (a *MallocAllocator) Allocate(l Layout) (unsafe.Pointer, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	p := cAlloc(l)
	if p == nil {
		return nil, fmt.Errorf("%w: malloc %v", ErrAllocFailed, l)
	}
	return p, nil
}

// Reallocate calls realloc. Over-aligned regions are moved by hand because
// realloc does not preserve alignment beyond maxMallocAlign.
func (a *MallocAllocator) Reallocate(p unsafe.Pointer, old Layout, newSize uintptr) (unsafe.Pointer, error) {
	nl := old.WithSize(newSize)
	if err := nl.validate(); err != nil {
		return nil, err
	}
	if old.Align <= maxMallocAlign {
		np := C.realloc(p, C.size_t(newSize))
		if np == nil {
			return nil, fmt.Errorf("%w: realloc %v -> %d", ErrAllocFailed, old, newSize)
		}
		return np, nil
	}
	np := cAlloc(nl)
	if np == nil {
		return nil, fmt.Errorf("%w: posix_memalign %v", ErrAllocFailed, nl)
	}
	C.memcpy(np, p, C.size_t(min(old.Size, newSize)))
	C.free(p)
	return np, nil
}

// Free calls free.
func (a *MallocAllocator) Free(p unsafe.Pointer, _ Layout) {
	C.free(p)
}

func cAlloc(l Layout) unsafe.Pointer {
	if l.Align <= maxMallocAlign {
		return C.malloc(C.size_t(l.Size))
	}
	var p unsafe.Pointer
	if C.posix_memalign(&p, C.size_t(l.Align), C.size_t(l.Size)) != 0 {
		return nil
	}
	return p
}

package alloc

import (
	"fmt"
	"unsafe"
)

// MmapAllocator serves each region from its own anonymous private mapping.
// Mappings are page aligned, so alignments above the page size are rejected.
// The memory is outside the Go heap and is returned to the OS on Free.
type MmapAllocator struct{}

// Mmap is the shared MmapAllocator. It holds no state.
var Mmap = &MmapAllocator{}

// Allocate maps a fresh zeroed region of l.Size bytes.
func (a *MmapAllocator) Allocate(l Layout) (unsafe.Pointer, error) {
	if err := a.check(l); err != nil {
		return nil, err
	}
	b, err := mapAnon(int(l.Size))
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %v: %w", ErrAllocFailed, l, err)
	}
	return unsafe.Pointer(unsafe.SliceData(b)), nil
}

// Reallocate resizes the mapping at p. See remapAnon for the per-platform
// strategy.
func (a *MmapAllocator) Reallocate(p unsafe.Pointer, old Layout, newSize uintptr) (unsafe.Pointer, error) {
	if err := a.check(old.WithSize(newSize)); err != nil {
		return nil, err
	}
	b, err := remapAnon(mapping(p, old.Size), int(newSize))
	if err != nil {
		return nil, fmt.Errorf("%w: mremap %v -> %d: %w", ErrAllocFailed, old, newSize, err)
	}
	return unsafe.Pointer(unsafe.SliceData(b)), nil
}

// Free unmaps the region. Unmapping a region Mmap did not map is ignored.
func (a *MmapAllocator) Free(p unsafe.Pointer, l Layout) {
	if p == nil || l.Size == 0 {
		return
	}
	_ = unmapAnon(mapping(p, l.Size))
}

func (a *MmapAllocator) check(l Layout) error {
	if err := l.validate(); err != nil {
		return err
	}
	if ps := pageSize(); ps > 0 && l.Align > uintptr(ps) {
		return fmt.Errorf("%w: alignment %d exceeds page size %d", ErrInvalidLayout, l.Align, ps)
	}
	return nil
}

// mapping rebuilds the slice a mapping was returned as. The unix package keys
// live mappings on the address of the last byte, so the length must be exact.
func mapping(p unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(p), size)
}

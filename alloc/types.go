package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/rawvec/internal/buf"
)

// Layout is the (size, alignment) pair a region is allocated, reallocated and
// freed with.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout validates size and align. Align must be a power of two and size,
// rounded up to align, must not exceed math.MaxInt.
func NewLayout(size, align uintptr) (Layout, error) {
	if !buf.IsPow2(align) {
		return Layout{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidLayout, align)
	}
	if _, ok := buf.AlignUp(size, align); !ok {
		return Layout{}, fmt.Errorf("%w: size %d overflows at alignment %d", ErrInvalidLayout, size, align)
	}
	return Layout{Size: size, Align: align}, nil
}

// ArrayLayout returns the layout of n contiguous values of T.
func ArrayLayout[T any](n int) (Layout, error) {
	var zero T
	size, ok := buf.ArrayBytes(n, unsafe.Sizeof(zero))
	if !ok {
		return Layout{}, fmt.Errorf("%w: %d elements of %d bytes", ErrInvalidLayout, n, unsafe.Sizeof(zero))
	}
	return NewLayout(size, unsafe.Alignof(zero))
}

// WithSize returns l resized to size, keeping the alignment.
func (l Layout) WithSize(size uintptr) Layout {
	return Layout{Size: size, Align: l.Align}
}

func (l Layout) String() string {
	return fmt.Sprintf("{size=%d align=%d}", l.Size, l.Align)
}

// validate rejects layouts backends cannot serve.
func (l Layout) validate() error {
	if l.Size == 0 {
		return fmt.Errorf("%w: zero size", ErrInvalidLayout)
	}
	_, err := NewLayout(l.Size, l.Align)
	return err
}

// Allocator is the byte-level allocator a vec.Array draws its buffer from.
//
// Implementations:
//   - Heap: Go heap backed, the default
//   - Mmap: anonymous memory mappings
//   - Malloc: C malloc (with the malloc_cgo build tag)
//
// Pointers handed out by an Allocator are opaque to the garbage collector
// except for Heap, so callers must not store Go pointers in them.
type Allocator interface {
	// Allocate returns a region of at least l.Size bytes aligned to l.Align.
	Allocate(l Layout) (unsafe.Pointer, error)

	// Reallocate resizes the region at p, allocated with old, to newSize bytes
	// at old.Align. The first min(old.Size, newSize) bytes are preserved.
	// The region may move. On error p remains valid and owned by the caller.
	Reallocate(p unsafe.Pointer, old Layout, newSize uintptr) (unsafe.Pointer, error)

	// Free releases the region at p. l must equal the layout passed to the most
	// recent successful Allocate or Reallocate for p.
	Free(p unsafe.Pointer, l Layout)
}

package vec

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/joshuapare/rawvec/alloc"
	"github.com/joshuapare/rawvec/internal/buf"
)

// zeroBase is the address handed out for zero-sized elements. It is 8-byte
// aligned, which covers every zero-sized type the compiler can produce.
var zeroBase uint64

// rawBuf owns the allocation behind an Array. It knows element size and
// alignment but nothing about T, so a cleanup can free it without keeping the
// Array reachable.
type rawBuf struct {
	base unsafe.Pointer
	cap  int
	elem alloc.Layout // Size may be 0
	a    alloc.Allocator
}

// layout is the layout the current buffer was allocated with.
func (r *rawBuf) layout() alloc.Layout {
	return alloc.Layout{Size: uintptr(r.cap) * r.elem.Size, Align: r.elem.Align}
}

func (r *rawBuf) slot(i int) unsafe.Pointer {
	if r.elem.Size == 0 {
		return unsafe.Pointer(&zeroBase)
	}
	return unsafe.Add(r.base, uintptr(i)*r.elem.Size)
}

// reserveInitial sets up the first buffer with a fresh Allocate call.
func (r *rawBuf) reserveInitial() error {
	if r.elem.Size == 0 {
		r.cap = math.MaxInt
		return nil
	}
	size, ok := buf.ArrayBytes(InitialCapacity, r.elem.Size)
	if !ok {
		return fmt.Errorf("%w: %d elements of %d bytes", ErrCapacityOverflow, InitialCapacity, r.elem.Size)
	}
	l := alloc.Layout{Size: size, Align: r.elem.Align}
	p, err := r.a.Allocate(l)
	if err != nil {
		return fmt.Errorf("%w: allocate %v: %w", ErrAllocationFailure, l, err)
	}
	if p == nil {
		return fmt.Errorf("%w: allocate %v returned nil", ErrAllocationFailure, l)
	}
	r.base, r.cap = p, InitialCapacity
	return nil
}

// grow doubles the capacity through Reallocate. Overflow is checked before
// the allocator is called, and r is untouched on any error.
func (r *rawBuf) grow() error {
	if r.elem.Size == 0 {
		return fmt.Errorf("%w: %d zero-sized elements", ErrCapacityOverflow, r.cap)
	}
	newCap, ok := buf.MulOverflowSafe(r.cap, 2)
	if !ok {
		return fmt.Errorf("%w: doubling %d", ErrCapacityOverflow, r.cap)
	}
	newSize, ok := buf.ArrayBytes(newCap, r.elem.Size)
	if !ok {
		return fmt.Errorf("%w: %d elements of %d bytes", ErrCapacityOverflow, newCap, r.elem.Size)
	}
	old := r.layout()
	p, err := r.a.Reallocate(r.base, old, newSize)
	if err != nil {
		return fmt.Errorf("%w: reallocate %v -> %d: %w", ErrAllocationFailure, old, newSize, err)
	}
	if p == nil {
		return fmt.Errorf("%w: reallocate %v -> %d returned nil", ErrAllocationFailure, old, newSize)
	}
	r.base, r.cap = p, newCap
	return nil
}

// free returns the buffer to the allocator with the layout it was allocated
// with and resets r to empty. It is safe to call more than once.
func (r *rawBuf) free() {
	if r.base != nil && r.cap > 0 && r.elem.Size > 0 {
		r.a.Free(r.base, r.layout())
	}
	r.base, r.cap = nil, 0
}

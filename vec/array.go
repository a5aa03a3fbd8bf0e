package vec

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/joshuapare/rawvec/alloc"
)

// InitialCapacity is the capacity of the first buffer an Array allocates.
const InitialCapacity = 4

// Array is a contiguous, growable sequence of T stored in memory obtained
// from an alloc.Allocator.
//
// T must be pointer-free: the buffer may live outside the Go heap and is
// never scanned by the garbage collector. Elements are moved bytewise when
// the buffer grows, so T must not point into its own storage.
//
// An Array is not safe for concurrent use and must not be copied after first
// use; copies share one buffer. The zero value is an empty Array that
// allocates from alloc.Default.
type Array[T any] struct {
	noCopy noCopy

	buf     *rawBuf
	length  int
	grows   int
	drops   bool
	armed   bool
	cleanup runtime.Cleanup
}

// Stats describes an Array's buffer.
type Stats struct {
	Len         int
	Cap         int
	Grows       int     // successful reallocations
	BufferBytes uintptr // bytes currently held from the allocator
}

// New returns an empty Array drawing from a, or alloc.Default when a is nil.
// Nothing is allocated until the first Append.
//
// New panics if T contains pointers.
func New[T any](a alloc.Allocator) *Array[T] {
	v := &Array[T]{}
	v.setup(a)
	return v
}

func (v *Array[T]) setup(a alloc.Allocator) {
	if v.buf != nil {
		return
	}
	mustBePointerFree(reflect.TypeFor[T]())
	if a == nil {
		a = alloc.Default
	}
	elem, err := alloc.ArrayLayout[T](1)
	if err != nil {
		panic(fmt.Sprintf("vec: element type %v: %v", reflect.TypeFor[T](), err))
	}
	var zero T
	_, v.drops = any(&zero).(Dropper)
	v.buf = &rawBuf{elem: elem, a: a}
}

// Len returns the number of elements.
func (v *Array[T]) Len() int { return v.length }

// Cap returns the number of elements the buffer can hold without growing.
func (v *Array[T]) Cap() int {
	if v.buf == nil {
		return 0
	}
	return v.buf.cap
}

// Get returns a copy of the element at index i. ok is false when i is out of
// range.
func (v *Array[T]) Get(i int) (elem T, ok bool) {
	if i < 0 || i >= v.length {
		return elem, false
	}
	elem = *v.at(i)
	runtime.KeepAlive(v)
	return elem, true
}

// Ref returns a pointer to the element at index i, or nil when i is out of
// range. The pointer is borrowed: it must not be used after the next Append
// or Release, either of which may move or free the buffer. It also does not
// keep the Array reachable; once the Array is unreachable its buffer may be
// freed, so callers holding the pointer must keep the Array alive, for
// example with runtime.KeepAlive.
func (v *Array[T]) Ref(i int) *T {
	if i < 0 || i >= v.length {
		return nil
	}
	return v.at(i)
}

// Append stores value at index Len(). The first call allocates room for
// InitialCapacity elements; a call on a full Array doubles the capacity.
//
// On error the Array is unchanged and does not keep value. The error wraps
// ErrCapacityOverflow or ErrAllocationFailure.
func (v *Array[T]) Append(value T) error {
	v.setup(nil)
	b := v.buf
	switch {
	case b.cap == 0:
		if err := b.reserveInitial(); err != nil {
			return err
		}
		v.arm()
	case v.length == b.cap:
		if err := b.grow(); err != nil {
			return err
		}
		v.grows++
	}
	*v.at(v.length) = value
	v.length++
	return nil
}

// Release drops every element, if T implements Dropper, and returns the
// buffer to the allocator. The Array is empty afterwards and may be reused;
// releasing it again is a no-op.
//
// A panic from Drop does not stop the remaining elements from being dropped
// or the buffer from being freed. The first such panic is re-raised once the
// buffer is released.
func (v *Array[T]) Release() {
	if v.buf == nil {
		return
	}
	n := v.length
	v.length, v.grows = 0, 0
	defer func() {
		if v.armed {
			v.cleanup.Stop()
			v.armed = false
		}
		v.buf.free()
	}()
	if v.drops {
		v.dropN(n)
	}
}

// Stats reports the current length, capacity and buffer size.
func (v *Array[T]) Stats() Stats {
	s := Stats{Len: v.length, Cap: v.Cap(), Grows: v.grows}
	if v.buf != nil && v.buf.base != nil {
		s.BufferBytes = v.buf.layout().Size
	}
	return s
}

func (v *Array[T]) at(i int) *T {
	return (*T)(v.buf.slot(i))
}

// arm registers a cleanup that frees the buffer if the Array becomes
// unreachable without Release. Elements are not dropped in that case.
func (v *Array[T]) arm() {
	if v.armed || v.buf.base == nil {
		return
	}
	v.cleanup = runtime.AddCleanup(v, (*rawBuf).free, v.buf)
	v.armed = true
}

func (v *Array[T]) dropN(n int) {
	var first any
	for i := range n {
		if r := dropOne(v.at(i)); r != nil && first == nil {
			first = r
		}
	}
	if first != nil {
		panic(first)
	}
}

func dropOne[T any](p *T) (r any) {
	defer func() { r = recover() }()
	any(p).(Dropper).Drop()
	return nil
}

// noCopy lets go vet's copylocks check flag an Array copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

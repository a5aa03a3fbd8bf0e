// Package vec provides Array, a growable contiguous array whose buffer comes
// from a byte-level alloc.Allocator instead of the Go runtime.
//
// # Overview
//
// An Array[T] is a (base, length, capacity) triple. Element size and
// alignment are taken from T with unsafe.Sizeof and unsafe.Alignof, and
// elements are addressed by offset from base:
//
//	arr := vec.New[uint32](nil) // alloc.Default
//	defer arr.Release()
//
//	for i := range 10 {
//	    if err := arr.Append(uint32(i)); err != nil {
//	        return err
//	    }
//	}
//	v, ok := arr.Get(3) // 3, true
//
// # Growth
//
// The first Append allocates InitialCapacity (4) slots with Allocate. An
// Append on a full Array doubles the capacity with Reallocate, which moves the
// elements bytewise. Capacity after N appends is therefore 0 for N = 0 and
// otherwise the smallest 4·2^k >= N. The buffer never shrinks.
//
// Before calling the allocator, Append checks that the doubled size fits in an
// int and fails with ErrCapacityOverflow if it does not. Allocator errors are
// returned wrapped in ErrAllocationFailure. Either way the Array is left as it
// was before the call.
//
// # Element Types
//
// T must be pointer-free (no pointers, strings, slices, maps, channels,
// funcs or interfaces anywhere in it); New panics otherwise. Zero-sized T never
// allocates and reports a capacity of math.MaxInt after the first Append.
//
// Element types that implement Dropper (on the value or pointer receiver)
// have Drop called for each element by Release.
//
// # Ownership
//
// The Array owns its buffer. Ref hands out a borrowed pointer that is only
// valid until the next Append or Release, and only while the Array itself is
// reachable; Get returns a copy and has no such restriction. Release is the
// deterministic end of an Array's life. An Array that becomes unreachable
// without Release still has its buffer freed by a runtime cleanup, but its
// elements are not dropped.
//
// An Array must not be copied after first use. go vet reports copies.
//
// # Thread Safety
//
// Array is not safe for concurrent use.
package vec

// Package buf contains overflow-checked size arithmetic for raw buffers.
package buf

import (
	"math"
	"math/bits"
)

// MaxSize is the largest byte count a buffer may span. Go slices and
// unsafe.Slice are indexed by int, so anything above math.MaxInt is unusable
// even when it fits in a uintptr.
const MaxSize = uintptr(math.MaxInt)

// AddUintptr returns a+b, or ok = false when the sum exceeds MaxSize.
func AddUintptr(a, b uintptr) (uintptr, bool) {
	if a > MaxSize || b > MaxSize-a {
		return 0, false
	}
	return a + b, true
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow int.
// Capacity doubling and count * elementSize both go through here.
func MulOverflowSafe(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > 0 && b > 0 {
		if a > math.MaxInt/b {
			return 0, false
		}
	}
	if a < 0 && b < 0 {
		if a < math.MaxInt/b {
			return 0, false
		}
	}
	// Mixed signs - check against MinInt
	if a > 0 && b < 0 {
		if b < math.MinInt/a {
			return 0, false
		}
	}
	if a < 0 && b > 0 {
		if a < math.MinInt/b {
			return 0, false
		}
	}
	return a * b, true
}

// MulUintptr returns a*b, or ok = false when the product exceeds MaxSize.
func MulUintptr(a, b uintptr) (uintptr, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > uint64(MaxSize) {
		return 0, false
	}
	return uintptr(lo), true
}

// ArrayBytes returns the byte size of count elements of elemSize bytes.
// It fails for negative counts and for products that exceed MaxSize.
//
//	n, ok := buf.ArrayBytes(capacity, unsafe.Sizeof(zero))
//	if !ok {
//	    return ErrCapacityOverflow
//	}
func ArrayBytes(count int, elemSize uintptr) (uintptr, bool) {
	if count < 0 {
		return 0, false
	}
	return MulUintptr(uintptr(count), elemSize)
}

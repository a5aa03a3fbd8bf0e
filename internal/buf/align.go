package buf

// IsPow2 reports whether n is a non-zero power of two.
func IsPow2(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// AlignUp returns n rounded up to the next multiple of align, which must be a
// power of two. ok is false when the rounded value exceeds MaxSize.
//
// Example:
//
//	AlignUp(1, 8)  = 8
//	AlignUp(8, 8)  = 8
//	AlignUp(9, 16) = 16
func AlignUp(n, align uintptr) (uintptr, bool) {
	mask := align - 1
	if n > MaxSize-mask {
		return 0, false
	}
	return (n + mask) &^ mask, true
}

// Aligned reports whether the address p is a multiple of align.
func Aligned(p, align uintptr) bool {
	return p&(align-1) == 0
}

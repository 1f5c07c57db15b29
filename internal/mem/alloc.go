package mem

import (
	"unsafe"
)

// AllocAlignedTo allocates a zeroed byte slice of the given size whose first
// byte sits at an address divisible by align. align must be a power of two.
//
// The slice is carved out of a larger Go allocation, so the memory stays
// under the garbage collector and is released by dropping every reference.
// The returned slice has no spare capacity.
func AllocAlignedTo(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align <= 0 || align&(align-1) != 0 {
		panic("mem: alignment must be a positive power of two")
	}

	buf := make([]byte, size+align)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	mask := uintptr(align - 1)
	offset := int((uintptr(align) - (addr & mask)) & mask)

	return buf[offset : offset+size : offset+size]
}

// IsAligned reports whether the first byte of b sits on an align boundary.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 {
		return true
	}
	addr := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // unsafe is required for memory alignment
	return addr%uintptr(align) == 0
}

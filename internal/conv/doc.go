// Package conv provides safe integer type conversion utilities.
//
// Arena descriptors, record headers and dictionary offsets are fixed-width
// uint32 fields; these helpers check the conversion from Go's int.
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv

// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Provides heap allocation aligned to an arbitrary power of two, used for
// page-aligned receive buffers.
package mem

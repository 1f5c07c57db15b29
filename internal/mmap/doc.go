// Package mmap provides anonymous and read-only file memory mappings.
//
// # Overview
//
// Two kinds of mapping are supported:
//
//   - MapAnon creates a private, read-write, zero-filled anonymous mapping.
//     Managed buffers use it for pages that may later be gifted to a pipe.
//   - Open maps a file read-only. The dictionary handle uses it to view the
//     word list without copying it onto the Go heap.
//
// # Usage
//
//	m, err := mmap.MapAnon(mmap.PageSize())
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
// # Lifetime
//
// A Mapping owns its memory. Close is idempotent; after Close the slice
// returned by Bytes must not be touched. Callers that hand the pages to the
// kernel (vmsplice with SPLICE_F_GIFT) must still Close the mapping to drop
// their own reference to the address range.
//
// Only Unix platforms are supported.
package mmap

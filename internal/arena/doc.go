// Package arena provides a segmented, off-heap record allocator for the
// skip-list index.
//
// Records are bump-allocated from page-sized anonymous mappings. A growable
// heap buffer, the directory, keeps one 16-byte descriptor per segment:
//
//	length u32 | used u32 | records u32 | reserved u32   (little-endian)
//
// When the directory cannot hold another descriptor it doubles. Segments
// themselves never move, so a Ref{Segment, Offset} handed out once stays
// valid until Free.
//
// # Record layout
//
//	linkCount u32 | dataCount u32 | link slots [linkCount]u64 | data slots [dataCount]u64
//
// Link slots hold Refs packed with Ref.Pack. The pool has no notion of what
// data slots mean.
//
// # Safety
//
// Caller contract violations (bad refs, out of range slots) panic.
// Allocation failures are returned as errors.
package arena

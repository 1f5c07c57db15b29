// Package buffer implements managed buffers: single contiguous regions with
// a recorded allocation strategy, a writer cursor for sequential append, and
// a dirty flag.
//
// # Strategies
//
// Each strategy is its own type, so strategy-specific operations are checked
// by the compiler:
//
//   - [Mapped]: anonymous mmap pages. Only mapped buffers can be gifted to a
//     pipe ([Mapped.Gift]).
//   - [Aligned]: page-aligned Go heap memory.
//   - [Heap]: plain Go heap memory of any length. Only heap buffers can grow
//     ([Heap.Grow]).
//
// All three implement [Buffer], the capability shared by the producer,
// consumer and arena code.
//
// # Ownership
//
// A buffer has exactly one owner. [Mapped.Gift] consumes its receiver: after
// a successful call the old value is released and a fresh buffer of the same
// length is returned in its place.
//
//	buf, err = buf.Gift(pipe)
//
// Using a released buffer, creating a mapped or aligned buffer whose length
// is not a page multiple, or shrinking a heap buffer are programming errors
// and panic.
//
// # Dirty Flag
//
// A buffer becomes dirty when any of its own operations (AppendLine,
// Reserve, FillFrom) writes to it. Writes made through the slice returned by
// Bytes are not tracked.
package buffer

// Package skiplist implements an ordered skip list whose nodes live in an
// arena.Pool.
//
// A list starts with two distinguished nodes: head, which carries MaxLevel
// links, and sentinel, which carries none. Every head link points at the
// sentinel, so each level of an empty list terminates immediately. The
// sentinel compares greater than every key.
//
// Nodes carry one data slot holding a caller-defined uint64. Ordering is
// defined by a KeyFunc that resolves that payload to bytes.
package skiplist

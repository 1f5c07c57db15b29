// Package dict opens a dictionary file as an arena-backed skip-list index.
//
// Plain files are mapped read-only. Files ending in .zst, .lz4 or .gz are
// streamed through the matching decompressor into a growable heap buffer.
//
// Population policy: one word per line, a trailing '\r' is stripped, empty
// lines are skipped and only the first occurrence of a word is indexed. The
// byte offset of every indexed word is recorded in a roaring bitmap; the
// skip-list nodes carry the word's ordinal in that bitmap.
package dict

// Package testutil provides testing utilities for giftbuf.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG with helpers for generating
// candidate words and dictionary files.
//
// # Random Words
//
//	rng := testutil.NewRNG(seed)
//	words := rng.Words(1000, 3, 12)
//	skewed := rng.SkewedWords(words[:50], 1000, 1.5)
//	text := testutil.DictionaryText(skewed, false)
package testutil

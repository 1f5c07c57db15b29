// Package permute enumerates the candidate spellings of a name within a
// Hamming distance.
package permute

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/bits"
)

const (
	// MaxNameLen bounds a name including its terminator, so names hold at
	// most MaxNameLen-1 bytes.
	MaxNameLen = 50
	// MaxEditLimit is the largest supported distance.
	MaxEditLimit = 10

	// Alphabet is the number of replacement letters, 'a' through 'z'.
	Alphabet = 26
)

var (
	// ErrEmptyName is returned for a zero-length name.
	ErrEmptyName = errors.New("permute: empty name")
	// ErrNameTooLong is returned when a name exceeds MaxNameLen-1 bytes.
	ErrNameTooLong = errors.New("permute: name too long")
	// ErrDistanceOutOfRange is returned for a distance outside [0, MaxEditLimit].
	ErrDistanceOutOfRange = errors.New("permute: distance out of range")
)

// Validate checks name and maxDist against the enumeration limits.
func Validate(name string, maxDist int) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLen-1 {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrNameTooLong, len(name), MaxNameLen-1)
	}
	if maxDist < 0 || maxDist > MaxEditLimit {
		return fmt.Errorf("%w: %d, limit %d", ErrDistanceOutOfRange, maxDist, MaxEditLimit)
	}
	return nil
}

// Hamming yields every string obtained from name by overwriting d of its
// columns with letters a-z, for d from 1 to min(maxDist, len(name)).
//
// Within one distance, column sets are visited in lexicographic order and,
// per column set, letters advance like an odometer with the last column
// fastest. Overwriting a column with its own letter is not skipped, so the
// sequence has exactly Count(len(name), maxDist) elements and may repeat.
//
// The yielded slice is reused between iterations.
func Hamming(name string, maxDist int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		n := len(name)
		buf := []byte(name)
		cols := make([]int, 0, MaxEditLimit)

		for d := 1; d <= min(maxDist, n); d++ {
			cols = cols[:d]
			for i := range cols {
				cols[i] = i
			}

			for {
				if !odometer(buf, cols, yield) {
					return
				}
				for _, c := range cols {
					buf[c] = name[c]
				}
				if !nextCombination(cols, n) {
					break
				}
			}
		}
	}
}

// odometer assigns every letter combination to cols in buf and yields each.
func odometer(buf []byte, cols []int, yield func([]byte) bool) bool {
	for _, c := range cols {
		buf[c] = 'a'
	}
	for {
		if !yield(buf) {
			return false
		}

		i := len(cols) - 1
		for ; i >= 0; i-- {
			c := cols[i]
			if buf[c] < 'z' {
				buf[c]++
				break
			}
			buf[c] = 'a'
		}
		if i < 0 {
			return true
		}
	}
}

// nextCombination advances cols to the next increasing k-subset of [0, n)
// in lexicographic order. It reports false after the last one.
func nextCombination(cols []int, n int) bool {
	k := len(cols)
	i := k - 1
	for i >= 0 && cols[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	cols[i]++
	for j := i + 1; j < k; j++ {
		cols[j] = cols[j-1] + 1
	}
	return true
}

// Count returns the number of candidates Hamming yields for a name of n
// bytes: the sum over d of C(n, d)·26^d. It saturates at math.MaxUint64.
func Count(n, maxDist int) uint64 {
	var total uint64
	for d := 1; d <= min(maxDist, n); d++ {
		term, ok := mul(binomial(n, d), pow26(d))
		if !ok {
			return math.MaxUint64
		}
		sum, carry := bits.Add64(total, term, 0)
		if carry != 0 {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

func binomial(n, k int) uint64 {
	r := uint64(1)
	for i := 1; i <= k; i++ {
		// r*(n-k+i) is divisible by i; n <= 49 keeps it in range.
		r = r * uint64(n-k+i) / uint64(i) //nolint:gosec // positive
	}
	return r
}

func pow26(d int) uint64 {
	r := uint64(1)
	for range d {
		r *= Alphabet
	}
	return r
}

func mul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

package testutil

import (
	"math"
	"math/rand"
	"strings"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the seed used to initialize the RNG.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a random integer in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Word returns a random lowercase word with length in [minLen, maxLen].
func (r *RNG) Word(minLen, maxLen int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wordLocked(minLen, maxLen)
}

func (r *RNG) wordLocked(minLen, maxLen int) string {
	n := minLen
	if maxLen > minLen {
		n += r.rand.Intn(maxLen - minLen + 1)
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + r.rand.Intn(26))
	}
	return string(b)
}

// Words returns n random lowercase words. Duplicates are possible.
func (r *RNG) Words(n, minLen, maxLen int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	words := make([]string, n)
	for i := range words {
		words[i] = r.wordLocked(minLen, maxLen)
	}
	return words
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Compute normalization constant (harmonic number with exponent s)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Sample from uniform and use inverse transform
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// SkewedWords draws n words from vocab with a Zipfian distribution, so the
// head of vocab repeats often. Useful for duplicate-heavy dictionaries.
func (r *RNG) SkewedWords(vocab []string, n int, s float64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	words := make([]string, n)
	for i := range words {
		words[i] = vocab[r.zipfLocked(len(vocab), s)]
	}
	return words
}

// DictionaryText renders words one per line. With crlf set, lines end in
// "\r\n".
func DictionaryText(words []string, crlf bool) []byte {
	sep := "\n"
	if crlf {
		sep = "\r\n"
	}

	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(w)
		sb.WriteString(sep)
	}
	return []byte(sb.String())
}

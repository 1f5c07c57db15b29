package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	rng := NewRNG(4711)

	words := rng.Words(100, 3, 6)

	assert.Len(t, words, 100)
	for _, w := range words {
		assert.GreaterOrEqual(t, len(w), 3)
		assert.LessOrEqual(t, len(w), 6)
		for _, c := range []byte(w) {
			assert.True(t, c >= 'a' && c <= 'z')
		}
	}

	assert.Len(t, rng.Word(5, 5), 5)
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	w1 := rng.Words(10, 1, 8)

	rng.Reset()
	w2 := rng.Words(10, 1, 8)

	assert.Equal(t, w1, w2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestSkewedWords(t *testing.T) {
	rng := NewRNG(42)
	vocab := []string{"alpha", "bravo", "charlie", "delta"}

	words := rng.SkewedWords(vocab, 1000, 1.5)

	counts := map[string]int{}
	for _, w := range words {
		counts[w]++
	}
	assert.Greater(t, counts["alpha"], counts["delta"])
	assert.Equal(t, 1000, counts["alpha"]+counts["bravo"]+counts["charlie"]+counts["delta"])
}

func TestDictionaryText(t *testing.T) {
	assert.Equal(t, "a\nbc\n", string(DictionaryText([]string{"a", "bc"}, false)))
	assert.Equal(t, "a\r\nbc\r\n", string(DictionaryText([]string{"a", "bc"}, true)))
	assert.Empty(t, DictionaryText(nil, false))
}

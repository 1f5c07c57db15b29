package dict

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/giftbuf/internal/fs"
	"github.com/hupe1980/giftbuf/internal/skiplist"
	"github.com/hupe1980/giftbuf/testutil"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func collectWords(d *Dictionary) []string {
	var out []string
	for w := range d.Words {
		out = append(out, string(w))
	}
	return out
}

func TestDetectCompression(t *testing.T) {
	tests := map[string]Compression{
		"words":        CompressionNone,
		"words.txt":    CompressionNone,
		"words.lz4":    CompressionLZ4,
		"words.zst":    CompressionZSTD,
		"words.ZSTD":   CompressionZSTD,
		"words.txt.gz": CompressionGzip,
		"dir.gz/words": CompressionNone,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectCompression(path), path)
	}
	assert.Equal(t, "zstd", CompressionZSTD.String())
}

func TestOpen_Plain(t *testing.T) {
	text := "delta\nalpha\r\n\ncharlie\nalpha\nbravo"
	path := writeFile(t, "words", []byte(text))
	d, err := Open(path, WithListOptions(skiplist.WithSeed(1)))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	assert.Equal(t, path, d.Path())

	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, collectWords(d))
	assert.Equal(t, 4, d.Len())

	assert.Equal(t, "delta", string(d.Word(0)))
	assert.Equal(t, "alpha", string(d.Word(1)), "carriage return is stripped")
	assert.Equal(t, "bravo", string(d.Word(3)), "last line needs no terminator")

	stats := d.Stats()
	assert.Equal(t, CompressionNone, stats.Compression)
	assert.Equal(t, len(text), stats.Bytes)
	assert.Equal(t, 5, stats.Lines)
	assert.Equal(t, 4, stats.Words)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.Segments)
}

func TestOpen_Empty(t *testing.T) {
	d, err := Open(writeFile(t, "empty", nil))
	require.NoError(t, err)

	assert.Zero(t, d.Len())
	assert.Empty(t, collectWords(d))

	head := d.index.Head()
	for i := range d.index.MaxLevel() {
		assert.True(t, d.index.IsSentinel(head.Link(i)))
	}

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_Skewed(t *testing.T) {
	rng := testutil.NewRNG(11)
	vocab := rng.Words(200, 3, 10)
	words := rng.SkewedWords(vocab, 5000, 1.2)

	d, err := Open(writeFile(t, "skewed", testutil.DictionaryText(words, false)))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	unique := slices.Clone(words)
	sort.Strings(unique)
	unique = slices.Compact(unique)

	assert.Equal(t, unique, collectWords(d))
	stats := d.Stats()
	assert.Equal(t, len(words), stats.Lines)
	assert.Equal(t, len(words)-len(unique), stats.Duplicates)
}

func compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()

	var out bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionLZ4:
		w = lz4.NewWriter(&out)
	case CompressionZSTD:
		enc, err := zstd.NewWriter(&out)
		require.NoError(t, err)
		w = enc
	case CompressionGzip:
		w = gzip.NewWriter(&out)
	default:
		t.Fatalf("unexpected compression %s", c)
	}

	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return out.Bytes()
}

func TestOpen_Compressed(t *testing.T) {
	rng := testutil.NewRNG(5)
	words := rng.Words(2000, 2, 9)
	text := testutil.DictionaryText(words, true)

	want := slices.Clone(words)
	sort.Strings(want)
	want = slices.Compact(want)

	cases := map[string]Compression{
		"words.lz4": CompressionLZ4,
		"words.zst": CompressionZSTD,
		"words.gz":  CompressionGzip,
	}
	for name, c := range cases {
		t.Run(c.String(), func(t *testing.T) {
			path := writeFile(t, name, compress(t, c, text))

			// A small initial buffer forces several doublings.
			d, err := Open(path, WithHeapLength(64))
			require.NoError(t, err)
			defer func() { _ = d.Close() }()

			stats := d.Stats()
			assert.Equal(t, c, stats.Compression)
			assert.Equal(t, len(text), stats.Bytes)
			assert.Equal(t, want, collectWords(d))
		})
	}
}

func TestOpen_CorruptCompressed(t *testing.T) {
	path := writeFile(t, "words.gz", []byte("definitely not gzip"))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestLineAt(t *testing.T) {
	text := []byte("ab\r\n\ncd")

	line, next := lineAt(text, 0)
	assert.Equal(t, "ab", string(line))
	assert.Equal(t, 4, next)

	line, next = lineAt(text, next)
	assert.Empty(t, line)
	assert.Equal(t, 5, next)

	line, next = lineAt(text, next)
	assert.Equal(t, "cd", string(line))
	assert.Equal(t, len(text), next)
}

func TestOpen_FaultyRead(t *testing.T) {
	rng := testutil.NewRNG(8)
	text := testutil.DictionaryText(rng.Words(5000, 4, 12), false)
	path := writeFile(t, "words.gz", compress(t, CompressionGzip, text))

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("words.gz", fs.Fault{FailAfterBytes: 64})

	_, err := Open(path, WithFileSystem(ffs))
	assert.ErrorIs(t, err, fs.ErrInjected)

	ffs.AddRule("words.gz", fs.Fault{FailAfterBytes: -1})
	d, err := Open(path, WithFileSystem(ffs))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()
	assert.Equal(t, len(text), d.Stats().Bytes)
	assert.Positive(t, ffs.BytesRead())
}

package dict

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/giftbuf/internal/buffer"
	"github.com/hupe1980/giftbuf/internal/fs"
	"github.com/hupe1980/giftbuf/internal/mmap"
)

// Compression identifies how a dictionary file is encoded.
type Compression uint8

const (
	// CompressionNone is a plain text file, mapped directly.
	CompressionNone Compression = iota
	// CompressionLZ4 is an LZ4 frame.
	CompressionLZ4
	// CompressionZSTD is a zstd stream.
	CompressionZSTD
	// CompressionGzip is a gzip stream.
	CompressionGzip
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("Compression(%d)", c)
	}
}

// DetectCompression derives the encoding from the file extension.
func DetectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return CompressionLZ4
	case ".zst", ".zstd":
		return CompressionZSTD
	case ".gz":
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// source holds the dictionary text, either mapped or decompressed.
type source struct {
	mapping *mmap.Mapping
	heap    *buffer.Heap
}

func (s *source) text() []byte {
	if s.heap != nil {
		return s.heap.Written()
	}
	return s.mapping.Bytes()
}

func (s *source) advise(p mmap.AccessPattern) {
	if s.mapping != nil {
		_ = s.mapping.Advise(p)
	}
}

func (s *source) close() error {
	if s.heap != nil {
		return s.heap.Release()
	}
	if s.mapping != nil {
		return s.mapping.Close()
	}
	return nil
}

func openSource(fsys fs.FileSystem, path string, c Compression, initial int) (*source, error) {
	if c == CompressionNone {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, err
		}
		return &source{mapping: m}, nil
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader
	switch c {
	case CompressionLZ4:
		r = lz4.NewReader(f)
	case CompressionZSTD:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		r = dec
	case CompressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	default:
		return nil, fmt.Errorf("dict: unsupported compression %s", c)
	}

	heap, err := decompress(r, initial)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c, err)
	}
	return &source{heap: heap}, nil
}

// decompress fills a heap buffer from r, doubling it whenever it is full.
func decompress(r io.Reader, initial int) (*buffer.Heap, error) {
	heap := buffer.NewHeap(initial)
	for {
		status, err := heap.FillFrom(r)
		if err != nil {
			_ = heap.Release()
			return nil, err
		}
		if status == buffer.FillEOF {
			return heap, nil
		}
		heap.Grow(2 * heap.Len())
	}
}

package dict

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/giftbuf/internal/conv"
	"github.com/hupe1980/giftbuf/internal/fs"
	"github.com/hupe1980/giftbuf/internal/mmap"
	"github.com/hupe1980/giftbuf/internal/skiplist"
)

const defaultHeapLength = 64 * 1024

// ErrTooLarge is returned when the dictionary text exceeds the 4 GiB
// addressable by the word-start bitmap.
var ErrTooLarge = errors.New("dict: dictionary larger than 4 GiB")

// Stats describes how a dictionary was loaded.
type Stats struct {
	Compression Compression
	Bytes       int // text length after decompression
	Lines       int // non-empty lines seen
	Words       int // distinct words indexed
	Duplicates  int
	Segments    int // arena segments backing the index
}

type options struct {
	listOpts   []skiplist.Option
	heapLength int
	fsys       fs.FileSystem
}

// Option is a configuration option for Open.
type Option func(*options)

// WithListOptions passes options to the skip-list index.
func WithListOptions(opts ...skiplist.Option) Option {
	return func(o *options) {
		o.listOpts = append(o.listOpts, opts...)
	}
}

// WithHeapLength sets the initial decompression buffer length.
func WithHeapLength(n int) Option {
	return func(o *options) {
		o.heapLength = n
	}
}

// WithFileSystem sets the file system compressed dictionaries are read
// from. Plain files are always mapped from the local file system.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// Dictionary is an open dictionary file and its index.
type Dictionary struct {
	path   string
	src    *source
	starts *roaring.Bitmap
	index  *skiplist.List
	stats  Stats
}

// Open maps or decompresses the file at path and builds its index.
func Open(path string, opts ...Option) (*Dictionary, error) {
	o := options{heapLength: defaultHeapLength, fsys: fs.Default}
	for _, opt := range opts {
		opt(&o)
	}

	c := DetectCompression(path)
	src, err := openSource(o.fsys, path, c, o.heapLength)
	if err != nil {
		return nil, err
	}

	d := &Dictionary{
		path:   path,
		src:    src,
		starts: roaring.New(),
	}
	d.stats.Compression = c

	d.index, err = skiplist.New(d.key, o.listOpts...)
	if err != nil {
		_ = src.close()
		return nil, err
	}

	if err := d.populate(); err != nil {
		_ = d.Close()
		return nil, err
	}

	return d, nil
}

func (d *Dictionary) populate() error {
	text := d.src.text()
	d.stats.Bytes = len(text)
	if int64(len(text)) > math.MaxUint32 {
		return ErrTooLarge
	}

	d.src.advise(mmap.AccessSequential)
	defer d.src.advise(mmap.AccessRandom)

	for off := 0; off < len(text); {
		line, next := lineAt(text, off)
		start := conv.MustIntToUint32(off)
		off = next
		if len(line) == 0 {
			continue
		}
		d.stats.Lines++

		d.starts.Add(start)
		ordinal := d.starts.GetCardinality() - 1
		ok, err := d.index.Insert(ordinal)
		if err != nil {
			return fmt.Errorf("dict: index %s: %w", d.path, err)
		}
		if !ok {
			d.starts.Remove(start)
			d.stats.Duplicates++
			continue
		}
		d.stats.Words++
	}

	d.starts.RunOptimize()
	d.stats.Segments = d.index.Pool().Segments()
	return nil
}

// lineAt returns the line starting at off without its terminator and the
// offset of the following line.
func lineAt(text []byte, off int) ([]byte, int) {
	rest := text[off:]
	end := bytes.IndexByte(rest, '\n')
	next := off + end + 1
	if end < 0 {
		end = len(rest)
		next = len(text)
	}
	return bytes.TrimSuffix(rest[:end], []byte{'\r'}), next
}

// key resolves a word ordinal to the word bytes.
func (d *Dictionary) key(ordinal uint64) []byte {
	rank, err := conv.Uint64ToUint32(ordinal)
	if err != nil {
		panic(fmt.Sprintf("dict: unknown ordinal %d: %v", ordinal, err))
	}
	off, err := d.starts.Select(rank)
	if err != nil {
		panic(fmt.Sprintf("dict: unknown ordinal %d: %v", ordinal, err))
	}
	line, _ := lineAt(d.src.text(), int(off))
	return line
}

// Word returns the i-th indexed word in file order.
func (d *Dictionary) Word(i int) []byte {
	return d.key(uint64(i)) //nolint:gosec // caller contract
}

// Len returns the number of indexed words.
func (d *Dictionary) Len() int {
	return d.index.Len()
}

// Words iterates the indexed words in ascending byte order.
func (d *Dictionary) Words(yield func([]byte) bool) {
	for ordinal := range d.index.All() {
		if !yield(d.key(ordinal)) {
			return
		}
	}
}

// Path returns the file the dictionary was opened from.
func (d *Dictionary) Path() string {
	return d.path
}

// Stats returns load statistics.
func (d *Dictionary) Stats() Stats {
	return d.stats
}

// Close tears down the index arena and unmaps or releases the text.
// Calling Close more than once is a no-op.
func (d *Dictionary) Close() error {
	if d.src == nil {
		return nil
	}

	var errs []error
	if d.index != nil {
		errs = append(errs, d.index.Close())
	}
	errs = append(errs, d.src.close())

	d.src = nil
	d.starts = nil
	return errors.Join(errs...)
}

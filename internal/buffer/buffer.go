package buffer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/giftbuf/internal/mem"
	"github.com/hupe1980/giftbuf/internal/mmap"
	"golang.org/x/sys/unix"
)

// Strategy records how a buffer's memory was obtained and therefore how it
// must be released.
type Strategy uint8

const (
	// Unallocated is the state of a released (or never created) buffer.
	Unallocated Strategy = iota
	// AnonymousMapped buffers live in private anonymous mappings.
	AnonymousMapped
	// AlignedAllocated buffers live on the Go heap, page aligned.
	AlignedAllocated
	// HeapAllocated buffers live on the Go heap with no alignment guarantee.
	HeapAllocated
)

func (s Strategy) String() string {
	switch s {
	case Unallocated:
		return "unallocated"
	case AnonymousMapped:
		return "anonymous-mapped"
	case AlignedAllocated:
		return "aligned-allocated"
	case HeapAllocated:
		return "heap-allocated"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// FillStatus reports why FillFrom stopped.
type FillStatus int

const (
	// FillFull means the buffer has no room left; the source may have more.
	FillFull FillStatus = iota + 1
	// FillEOF means the source signalled end of stream.
	FillEOF
)

func (s FillStatus) String() string {
	switch s {
	case FillFull:
		return "full"
	case FillEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// maxConsecutiveEmptyReads mirrors bufio: a source that keeps returning
// (0, nil) is treated as broken.
const maxConsecutiveEmptyReads = 100

// Buffer is the capability shared by every allocated strategy.
type Buffer interface {
	// Strategy returns the allocation strategy, Unallocated after Release.
	Strategy() Strategy
	// Bytes returns the whole region, written or not.
	Bytes() []byte
	// Len returns the region length in bytes.
	Len() int
	// Cursor returns the offset of the next free byte.
	Cursor() int
	// Remaining returns the number of bytes from the cursor to the end.
	Remaining() int
	// Dirty reports whether the buffer has been written since creation or
	// the last Wipe.
	Dirty() bool
	// AppendLine appends line and a '\n' terminator. If they do not fit with
	// at least one byte to spare, the remaining region is zeroed and false is
	// returned.
	AppendLine(line []byte) bool
	// Reserve carves n bytes at the cursor and advances past them.
	Reserve(n int) ([]byte, bool)
	// FillFrom reads from src until the buffer is full or src is exhausted.
	FillFrom(src io.Reader) (FillStatus, error)
	// DrainTrimmed writes the region minus trailing NUL bytes to w.
	DrainTrimmed(w io.Writer) (int, error)
	// Wipe zeroes the region and resets the cursor and dirty flag.
	Wipe()
	// Release returns the memory according to the strategy.
	Release() error
}

// New creates a buffer of the given strategy and length.
func New(strategy Strategy, length int) (Buffer, error) {
	switch strategy {
	case AnonymousMapped:
		m, err := NewMapped(length)
		if err != nil {
			return nil, err
		}
		return m, nil
	case AlignedAllocated:
		return NewAligned(length), nil
	case HeapAllocated:
		return NewHeap(length), nil
	default:
		panic(fmt.Sprintf("buffer: cannot create a buffer with strategy %v", strategy))
	}
}

// region is the state shared by every strategy.
// cursor+Remaining() == len(data) always holds.
type region struct {
	strategy Strategy
	data     []byte
	cursor   int
	dirty    bool
}

func newRegion(strategy Strategy, data []byte) region {
	return region{strategy: strategy, data: data}
}

func (r *region) mustLive() {
	if r.strategy == Unallocated {
		panic("buffer: use of unallocated buffer")
	}
}

func (r *region) reset() {
	r.strategy = Unallocated
	r.data = nil
	r.cursor = 0
	r.dirty = false
}

func (r *region) Strategy() Strategy { return r.strategy }
func (r *region) Bytes() []byte      { return r.data }
func (r *region) Len() int           { return len(r.data) }
func (r *region) Cursor() int        { return r.cursor }
func (r *region) Remaining() int     { return len(r.data) - r.cursor }
func (r *region) Dirty() bool        { return r.dirty }

// Written returns the bytes between the start of the region and the cursor.
func (r *region) Written() []byte {
	return r.data[:r.cursor]
}

// AppendLine implements Buffer.
//
// The terminator must leave at least one free byte behind it, so a line
// whose encoded form exactly fills the remaining space is rejected. The
// rejected path writes nothing but the zero pad.
func (r *region) AppendLine(line []byte) bool {
	r.mustLive()
	r.dirty = true

	free := r.data[r.cursor:]
	need := len(line) + 1
	if need >= len(free) {
		clear(free)
		return false
	}

	copy(free, line)
	free[len(line)] = '\n'
	r.cursor += need
	return true
}

// Reserve implements Buffer. Nothing is written when n does not fit.
func (r *region) Reserve(n int) ([]byte, bool) {
	r.mustLive()
	if n < 0 {
		panic("buffer: negative reservation")
	}
	if n > r.Remaining() {
		return nil, false
	}

	p := r.data[r.cursor : r.cursor+n : r.cursor+n]
	r.cursor += n
	r.dirty = true
	return p, true
}

// FillFrom implements Buffer. Interrupted and would-block reads are retried.
func (r *region) FillFrom(src io.Reader) (FillStatus, error) {
	r.mustLive()

	empty := 0
	for r.cursor < len(r.data) {
		n, err := src.Read(r.data[r.cursor:])
		if n > 0 {
			r.cursor += n
			r.dirty = true
			empty = 0
		}

		switch {
		case err == nil:
			if n == 0 {
				empty++
				if empty >= maxConsecutiveEmptyReads {
					return 0, io.ErrNoProgress
				}
			}
		case errors.Is(err, io.EOF):
			return FillEOF, nil
		case IsTransient(err):
			continue
		default:
			return 0, err
		}
	}

	return FillFull, nil
}

// DrainTrimmed implements Buffer. Short and transient writes are retried.
func (r *region) DrainTrimmed(w io.Writer) (int, error) {
	r.mustLive()

	out := bytes.TrimRight(r.data, "\x00")
	written := 0
	empty := 0
	for len(out) > 0 {
		n, err := w.Write(out)
		written += n
		out = out[n:]

		if err != nil {
			if IsTransient(err) {
				continue
			}
			return written, err
		}
		if n == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return written, io.ErrShortWrite
			}
		}
	}

	return written, nil
}

// Wipe implements Buffer.
func (r *region) Wipe() {
	r.mustLive()
	clear(r.data)
	r.cursor = 0
	r.dirty = false
}

// IsTransient reports whether err is an interrupted or would-block
// condition that should be retried rather than surfaced.
func IsTransient(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN)
}

// Mapped is a managed buffer backed by an anonymous mapping.
type Mapped struct {
	region
	mapping *mmap.Mapping
}

// NewMapped maps length bytes of zero-filled anonymous memory. length must
// be a positive multiple of the page size.
func NewMapped(length int) (*Mapped, error) {
	mustPageMultiple(length)

	mapping, err := mmap.MapAnon(length)
	if err != nil {
		return nil, err
	}

	return &Mapped{
		region:  newRegion(AnonymousMapped, mapping.Bytes()),
		mapping: mapping,
	}, nil
}

// Release unmaps the pages and resets the buffer to Unallocated.
func (m *Mapped) Release() error {
	m.mustLive()
	mapping := m.mapping
	m.mapping = nil
	m.reset()
	return mapping.Close()
}

// Aligned is a managed buffer of page-aligned heap memory.
type Aligned struct {
	region
}

// NewAligned allocates length bytes of zeroed, page-aligned memory. length
// must be a positive multiple of the page size.
func NewAligned(length int) *Aligned {
	mustPageMultiple(length)

	return &Aligned{
		region: newRegion(AlignedAllocated, mem.AllocAlignedTo(length, mmap.PageSize())),
	}
}

// Release drops the memory and resets the buffer to Unallocated.
func (a *Aligned) Release() error {
	a.mustLive()
	a.reset()
	return nil
}

// Heap is a growable managed buffer of heap memory.
type Heap struct {
	region
}

// NewHeap allocates length bytes of zeroed heap memory. length must be positive.
func NewHeap(length int) *Heap {
	if length <= 0 {
		panic(fmt.Sprintf("buffer: heap length must be positive, got %d", length))
	}

	return &Heap{
		region: newRegion(HeapAllocated, make([]byte, length)),
	}
}

// Grow enlarges the buffer to newLen bytes. Existing bytes are preserved and
// the new tail is zeroed. The region may move; the cursor is an offset and
// keeps pointing at the same logical byte.
func (h *Heap) Grow(newLen int) {
	h.mustLive()
	if newLen <= len(h.data) {
		panic(fmt.Sprintf("buffer: grow from %d to %d does not increase length", len(h.data), newLen))
	}

	grown := make([]byte, newLen)
	copy(grown, h.data)
	h.data = grown
}

// Release drops the memory and resets the buffer to Unallocated.
func (h *Heap) Release() error {
	h.mustLive()
	h.reset()
	return nil
}

func mustPageMultiple(length int) {
	if length <= 0 || length%mmap.PageSize() != 0 {
		panic(fmt.Sprintf("buffer: length %d is not a positive multiple of the page size %d", length, mmap.PageSize()))
	}
}

var (
	_ Buffer = (*Mapped)(nil)
	_ Buffer = (*Aligned)(nil)
	_ Buffer = (*Heap)(nil)
)

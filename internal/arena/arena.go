package arena

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/giftbuf/internal/buffer"
	"github.com/hupe1980/giftbuf/internal/conv"
	"github.com/hupe1980/giftbuf/internal/mmap"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

var (
	// ErrRecordTooLarge is returned when a record cannot fit in a single segment.
	ErrRecordTooLarge = errors.New("arena: record larger than segment")
	// ErrClosed is returned when allocating from a freed pool.
	ErrClosed = errors.New("arena: pool is freed")
	// ErrMaxSegmentsExceeded is returned when the segment index space is exhausted.
	ErrMaxSegmentsExceeded = errors.New("arena: max segments exceeded")
)

const (
	// DescriptorSize is the encoded size of one segment descriptor.
	DescriptorSize = 16
	// HeaderSize is the size of a record header (link and data counts).
	HeaderSize = 8
	// SlotSize is the size of one link or data slot.
	SlotSize = 8

	// acquireTimeout bounds how long a segment allocation waits for the memory budget.
	acquireTimeout = 100 * time.Millisecond
)

// Ref addresses a record by segment index and byte offset within that segment.
// The zero Ref is never handed out: the first slot of segment 0 is reserved.
type Ref struct {
	Segment uint32
	Offset  uint32
}

// IsNil reports whether r is the zero reference.
func (r Ref) IsNil() bool { return r == Ref{} }

// Pack encodes r into a link slot.
func (r Ref) Pack() uint64 {
	return uint64(r.Segment)<<32 | uint64(r.Offset)
}

// Unpack decodes a link slot.
func Unpack(v uint64) Ref {
	return Ref{Segment: uint32(v >> 32), Offset: uint32(v)} //nolint:gosec // split of a packed uint64
}

func (r Ref) String() string {
	return fmt.Sprintf("%d:%d", r.Segment, r.Offset)
}

// SegmentInfo is the decoded directory descriptor of one segment.
type SegmentInfo struct {
	Length  uint32
	Used    uint32
	Records uint32
}

// Stats reports pool memory usage.
type Stats struct {
	Segments         int    // Active segments
	DirectoryLength  int    // Current directory buffer length in bytes
	DirectoryGrowths uint64 // Number of directory doublings
	BytesReserved    uint64 // Segment memory mapped
	BytesUsed        uint64 // Segment memory carved into records
	Records          uint64 // Records allocated
}

// Pool is a segmented record allocator.
//
// A heap-backed directory buffer holds one descriptor per segment and grows
// by doubling. Segments are page-sized anonymous mappings that never move,
// so a Ref stays valid for the life of the pool.
//
// Pool is not safe for concurrent use.
type Pool struct {
	segmentLength int
	directory     *buffer.Heap
	segments      []*buffer.Mapped // indexed like the directory descriptors
	acquirer      MemoryAcquirer
	stats         Stats
	freed         bool
}

type options struct {
	segmentLength   int
	directoryLength int
	acquirer        MemoryAcquirer
}

// Option is a configuration option for Pool.
type Option func(*options)

// WithSegmentLength sets the length of every segment. It must be a positive
// multiple of the page size.
func WithSegmentLength(n int) Option {
	return func(o *options) {
		o.segmentLength = n
	}
}

// WithDirectoryLength sets the initial directory length. It must be a
// positive multiple of DescriptorSize.
func WithDirectoryLength(n int) Option {
	return func(o *options) {
		o.directoryLength = n
	}
}

// WithMemoryAcquirer sets the memory acquirer charged for every segment.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}

// New creates a pool with one directory buffer and one segment.
func New(opts ...Option) (*Pool, error) {
	o := options{
		segmentLength:   mmap.PageSize(),
		directoryLength: mmap.PageSize(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.segmentLength <= 0 || o.segmentLength%mmap.PageSize() != 0 || int64(o.segmentLength) > math.MaxUint32 {
		return nil, fmt.Errorf("arena: segment length %d is not a positive multiple of the page size %d", o.segmentLength, mmap.PageSize())
	}
	if o.directoryLength < DescriptorSize || o.directoryLength%DescriptorSize != 0 {
		return nil, fmt.Errorf("arena: directory length %d is not a positive multiple of %d", o.directoryLength, DescriptorSize)
	}

	p := &Pool{
		segmentLength: o.segmentLength,
		directory:     buffer.NewHeap(o.directoryLength),
		acquirer:      o.acquirer,
	}
	p.stats.DirectoryLength = o.directoryLength

	if err := p.addSegment(context.Background()); err != nil {
		_ = p.directory.Release()
		return nil, err
	}

	// Reserve offset 0 as null
	if _, ok := p.segments[0].Reserve(SlotSize); !ok {
		panic("arena: segment cannot hold the null slot")
	}
	p.updateDescriptor(0, false)

	return p, nil
}

func (p *Pool) addSegment(ctx context.Context) error {
	if int64(len(p.segments)) > math.MaxUint32 {
		return ErrMaxSegmentsExceeded
	}

	if p.acquirer != nil {
		var cancel context.CancelFunc
		if _, ok := ctx.Deadline(); !ok {
			ctx, cancel = context.WithTimeout(ctx, acquireTimeout)
			defer cancel()
		}
		if err := p.acquirer.AcquireMemory(ctx, int64(p.segmentLength)); err != nil {
			return fmt.Errorf("arena: acquire segment: %w", err)
		}
	}

	seg, err := buffer.NewMapped(p.segmentLength)
	if err != nil {
		if p.acquirer != nil {
			p.acquirer.ReleaseMemory(int64(p.segmentLength))
		}
		return fmt.Errorf("arena: map segment: %w", err)
	}

	desc, ok := p.directory.Reserve(DescriptorSize)
	if !ok {
		p.directory.Grow(2 * p.directory.Len())
		p.stats.DirectoryGrowths++
		p.stats.DirectoryLength = p.directory.Len()
		desc, _ = p.directory.Reserve(DescriptorSize)
	}
	binary.LittleEndian.PutUint32(desc[0:4], conv.MustIntToUint32(p.segmentLength))

	p.segments = append(p.segments, seg)
	p.stats.Segments++
	p.stats.BytesReserved += uint64(p.segmentLength) //nolint:gosec // positive

	return nil
}

// descriptor returns the encoded descriptor of segment i. The slice must not
// be retained across a directory growth.
func (p *Pool) descriptor(i int) []byte {
	off := i * DescriptorSize
	return p.directory.Bytes()[off : off+DescriptorSize]
}

func (p *Pool) updateDescriptor(i int, record bool) {
	desc := p.descriptor(i)
	binary.LittleEndian.PutUint32(desc[4:8], conv.MustIntToUint32(p.segments[i].Cursor()))
	if record {
		binary.LittleEndian.PutUint32(desc[8:12], binary.LittleEndian.Uint32(desc[8:12])+1)
	}
}

// RecordSize returns the encoded size of a record with the given slot counts.
func RecordSize(links, data int) int {
	return HeaderSize + SlotSize*(links+data)
}

// AllocRecord allocates a zeroed record with the given number of link and
// data slots and returns its reference.
func (p *Pool) AllocRecord(links, data int) (Ref, error) {
	if p.freed {
		return Ref{}, ErrClosed
	}
	if links < 0 || data < 0 {
		panic(fmt.Sprintf("arena: invalid slot counts %d/%d", links, data))
	}

	size := RecordSize(links, data)
	if size > p.segmentLength {
		return Ref{}, fmt.Errorf("%w: %d > %d", ErrRecordTooLarge, size, p.segmentLength)
	}

	idx := len(p.segments) - 1
	b, ok := p.segments[idx].Reserve(size)
	if !ok {
		if err := p.addSegment(context.Background()); err != nil {
			return Ref{}, err
		}
		idx++
		b, _ = p.segments[idx].Reserve(size)
	}

	binary.LittleEndian.PutUint32(b[0:4], conv.MustIntToUint32(links))
	binary.LittleEndian.PutUint32(b[4:8], conv.MustIntToUint32(data))

	p.updateDescriptor(idx, true)
	p.stats.BytesUsed += uint64(size) //nolint:gosec // positive
	p.stats.Records++

	return Ref{
		Segment: conv.MustIntToUint32(idx),
		Offset:  conv.MustIntToUint32(p.segments[idx].Cursor() - size),
	}, nil
}

// Record returns a view of the record at ref. It panics if ref does not
// address an allocated record.
func (p *Pool) Record(ref Ref) Record {
	if p.freed {
		panic("arena: use of freed pool")
	}
	if ref.IsNil() || int(ref.Segment) >= len(p.segments) {
		panic(fmt.Sprintf("arena: invalid ref %s", ref))
	}

	seg := p.segments[ref.Segment]
	off := int(ref.Offset)
	if off+HeaderSize > seg.Cursor() {
		panic(fmt.Sprintf("arena: invalid ref %s", ref))
	}

	b := seg.Bytes()[off:seg.Cursor()]
	links := int(binary.LittleEndian.Uint32(b[0:4]))
	data := int(binary.LittleEndian.Uint32(b[4:8]))
	size := RecordSize(links, data)

	return Record{b: b[:size:size]}
}

// Segments returns the number of active segments.
func (p *Pool) Segments() int {
	return len(p.segments)
}

// Segment returns the directory descriptor of segment i.
func (p *Pool) Segment(i int) SegmentInfo {
	desc := p.descriptor(i)
	return SegmentInfo{
		Length:  binary.LittleEndian.Uint32(desc[0:4]),
		Used:    binary.LittleEndian.Uint32(desc[4:8]),
		Records: binary.LittleEndian.Uint32(desc[8:12]),
	}
}

// SegmentLength returns the configured segment length.
func (p *Pool) SegmentLength() int {
	return p.segmentLength
}

// Stats returns the current pool statistics.
func (p *Pool) Stats() Stats {
	return p.stats
}

// Free unmaps every segment, releases the directory and refunds the memory
// acquirer. All records become invalid and the pool cannot be reused.
// Calling Free more than once is a no-op.
func (p *Pool) Free() error {
	if p.freed {
		return nil
	}
	p.freed = true

	var errs []error
	for i, seg := range p.segments {
		if err := seg.Release(); err != nil {
			errs = append(errs, fmt.Errorf("arena: release segment %d: %w", i, err))
		}
		p.segments[i] = nil
	}

	if p.acquirer != nil && p.stats.BytesReserved > 0 {
		p.acquirer.ReleaseMemory(int64(p.stats.BytesReserved)) //nolint:gosec // bounded by mapped memory
	}

	if err := p.directory.Release(); err != nil {
		errs = append(errs, err)
	}

	p.segments = nil
	p.stats = Stats{}

	return errors.Join(errs...)
}

func (p *Pool) String() string {
	return fmt.Sprintf(
		"Pool{segments: %d, directory: %d B, reserved: %.2f KB, used: %.2f KB, records: %d}",
		p.stats.Segments,
		p.stats.DirectoryLength,
		float64(p.stats.BytesReserved)/1024,
		float64(p.stats.BytesUsed)/1024,
		p.stats.Records,
	)
}

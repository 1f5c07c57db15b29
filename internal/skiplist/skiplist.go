package skiplist

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"math/bits"
	"time"

	"github.com/hupe1980/giftbuf/internal/arena"
)

const (
	// DefaultMaxLevel is the number of links carried by head.
	DefaultMaxLevel = 30

	dataSlots = 1
)

// ErrClosed is returned when inserting into a closed list.
var ErrClosed = errors.New("skiplist: closed")

// KeyFunc resolves a node payload to its ordering key.
type KeyFunc func(data uint64) []byte

// Node is a handle to a list node.
type Node struct {
	ref    arena.Ref
	record arena.Record
}

// Ref returns the arena reference of the node.
func (n Node) Ref() arena.Ref { return n.ref }

// LinkCount returns the number of levels the node participates in.
func (n Node) LinkCount() int { return n.record.LinkCount() }

// Link returns the arena reference of the next node at level i.
func (n Node) Link(i int) arena.Ref { return n.record.Link(i) }

type options struct {
	maxLevel int
	seed     uint64
	poolOpts []arena.Option
}

// Option is a configuration option for List.
type Option func(*options)

// WithMaxLevel sets the number of levels. It must be positive.
func WithMaxLevel(n int) Option {
	return func(o *options) {
		o.maxLevel = n
	}
}

// WithSeed fixes the seed of the level generator.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithPoolOptions passes options to the underlying arena pool.
func WithPoolOptions(opts ...arena.Option) Option {
	return func(o *options) {
		o.poolOpts = append(o.poolOpts, opts...)
	}
}

// List is an arena-backed skip list. It is not safe for concurrent use.
type List struct {
	pool     *arena.Pool
	key      KeyFunc
	head     arena.Ref
	sentinel arena.Ref
	maxLevel int
	level    int // highest level in use
	length   int
	rng      uint64
	update   []arena.Ref
}

// New creates an empty list: one pool, a head with MaxLevel links and a
// sentinel with none, every head link pointing at the sentinel.
func New(key KeyFunc, opts ...Option) (*List, error) {
	if key == nil {
		panic("skiplist: nil key func")
	}

	o := options{
		maxLevel: DefaultMaxLevel,
		seed:     uint64(time.Now().UnixNano()), //nolint:gosec // seed only
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxLevel <= 0 {
		return nil, fmt.Errorf("skiplist: invalid max level %d", o.maxLevel)
	}

	pool, err := arena.New(o.poolOpts...)
	if err != nil {
		return nil, err
	}

	head, err := pool.AllocRecord(o.maxLevel, 0)
	if err != nil {
		_ = pool.Free()
		return nil, fmt.Errorf("skiplist: allocate head: %w", err)
	}
	sentinel, err := pool.AllocRecord(0, 0)
	if err != nil {
		_ = pool.Free()
		return nil, fmt.Errorf("skiplist: allocate sentinel: %w", err)
	}

	rec := pool.Record(head)
	for i := range o.maxLevel {
		rec.SetLink(i, sentinel)
	}

	return &List{
		pool:     pool,
		key:      key,
		head:     head,
		sentinel: sentinel,
		maxLevel: o.maxLevel,
		level:    1,
		rng:      o.seed | 1,
		update:   make([]arena.Ref, o.maxLevel),
	}, nil
}

// Head returns the head node.
func (l *List) Head() Node { return l.node(l.head) }

// Sentinel returns the terminal node.
func (l *List) Sentinel() Node { return l.node(l.sentinel) }

// IsSentinel reports whether ref addresses the terminal node.
func (l *List) IsSentinel(ref arena.Ref) bool { return ref == l.sentinel }

// MaxLevel returns the number of levels.
func (l *List) MaxLevel() int { return l.maxLevel }

// Len returns the number of inserted payloads.
func (l *List) Len() int { return l.length }

// Pool returns the arena backing the list.
func (l *List) Pool() *arena.Pool { return l.pool }

// Node returns the node addressed by ref.
func (l *List) Node(ref arena.Ref) Node { return l.node(ref) }

func (l *List) node(ref arena.Ref) Node {
	if l.pool == nil {
		panic("skiplist: use of closed list")
	}
	return Node{ref: ref, record: l.pool.Record(ref)}
}

// compare orders the node at ref against key. The sentinel orders after
// everything.
func (l *List) compare(ref arena.Ref, key []byte) int {
	if ref == l.sentinel {
		return 1
	}
	return bytes.Compare(l.key(l.pool.Record(ref).Data(0)), key)
}

// Insert links a node carrying data at its ordered position. It reports
// false, without allocating, if a node with an equal key already exists.
func (l *List) Insert(data uint64) (bool, error) {
	if l.pool == nil {
		return false, ErrClosed
	}

	key := l.key(data)

	x := l.head
	for i := l.level - 1; i >= 0; i-- {
		for {
			next := l.pool.Record(x).Link(i)
			if l.compare(next, key) >= 0 {
				break
			}
			x = next
		}
		l.update[i] = x
	}

	if next := l.pool.Record(x).Link(0); l.compare(next, key) == 0 {
		return false, nil
	}

	level := l.randomLevel()
	if level > l.level {
		for i := l.level; i < level; i++ {
			l.update[i] = l.head
		}
		l.level = level
	}

	ref, err := l.pool.AllocRecord(level, dataSlots)
	if err != nil {
		return false, fmt.Errorf("skiplist: allocate node: %w", err)
	}

	rec := l.pool.Record(ref)
	rec.SetData(0, data)
	for i := range level {
		prev := l.pool.Record(l.update[i])
		rec.SetLink(i, prev.Link(i))
		prev.SetLink(i, ref)
	}

	l.length++
	return true, nil
}

// randomLevel draws a level in [1, MaxLevel] with P(level > k) = 2^-k
// from an xorshift64* stream.
func (l *List) randomLevel() int {
	l.rng ^= l.rng >> 12
	l.rng ^= l.rng << 25
	l.rng ^= l.rng >> 27
	r := l.rng * 0x2545F4914F6CDD1D
	return min(1+bits.TrailingZeros64(r), l.maxLevel)
}

// Level iterates the payloads linked at level i in key order.
func (l *List) Level(i int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		if l.pool == nil || i < 0 || i >= l.maxLevel {
			return
		}
		for ref := l.pool.Record(l.head).Link(i); ref != l.sentinel; {
			rec := l.pool.Record(ref)
			if !yield(rec.Data(0)) {
				return
			}
			ref = rec.Link(i)
		}
	}
}

// All iterates every payload in key order.
func (l *List) All() iter.Seq[uint64] {
	return l.Level(0)
}

// Close tears down the arena and clears head and sentinel.
func (l *List) Close() error {
	if l.pool == nil {
		return nil
	}
	err := l.pool.Free()
	l.pool = nil
	l.head = arena.Ref{}
	l.sentinel = arena.Ref{}
	l.length = 0
	return err
}

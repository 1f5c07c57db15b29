package buffer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hupe1980/giftbuf/internal/mmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// recordingGifter copies what it is given, at most max bytes per call.
type recordingGifter struct {
	got   bytes.Buffer
	max   int
	calls int
	fails []error
}

func (g *recordingGifter) Gift(p []byte) (int, error) {
	g.calls++
	if len(g.fails) > 0 {
		err := g.fails[0]
		g.fails = g.fails[1:]
		return 0, err
	}
	if g.max > 0 && len(p) > g.max {
		p = p[:g.max]
	}
	return g.got.Write(p)
}

func TestMapped_Gift(t *testing.T) {
	page := mmap.PageSize()

	t.Run("moves the whole region and replaces the buffer", func(t *testing.T) {
		m, err := NewMapped(2 * page)
		require.NoError(t, err)
		require.True(t, m.AppendLine([]byte("bob")))

		g := &recordingGifter{max: page / 2}
		next, err := m.Gift(g)
		require.NoError(t, err)
		defer next.Release()

		assert.Equal(t, 2*page, g.got.Len())
		assert.Equal(t, "bob\n", string(g.got.Bytes()[:4]))
		requireZero(t, g.got.Bytes()[4:])
		assert.Equal(t, 4, g.calls)

		assert.Equal(t, Unallocated, m.Strategy())
		assert.Panics(t, func() { m.AppendLine([]byte("x")) })
		assert.Panics(t, func() { _, _ = m.Gift(g) })

		assert.Equal(t, AnonymousMapped, next.Strategy())
		assert.Equal(t, 2*page, next.Len())
		assert.Equal(t, 0, next.Cursor())
		assert.False(t, next.Dirty())
		requireZero(t, next.Bytes())
	})

	t.Run("transient errors are retried", func(t *testing.T) {
		m, err := NewMapped(page)
		require.NoError(t, err)

		g := &recordingGifter{fails: []error{unix.EAGAIN, unix.EINTR}}
		next, err := m.Gift(g)
		require.NoError(t, err)
		defer next.Release()

		assert.Equal(t, page, g.got.Len())
	})

	t.Run("permanent error keeps ownership", func(t *testing.T) {
		m, err := NewMapped(page)
		require.NoError(t, err)

		g := &recordingGifter{fails: []error{unix.EPIPE}}
		next, err := m.Gift(g)
		assert.Nil(t, next)
		assert.True(t, errors.Is(err, unix.EPIPE))

		assert.Equal(t, AnonymousMapped, m.Strategy())
		require.NoError(t, m.Release())
	})
}

package giftbuf

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/giftbuf/internal/mmap"
)

// recordingChannel copies gifted bytes and hands out at most max bytes per call.
type recordingChannel struct {
	chunks [][]byte
	max    int
	fail   error
	closed bool
}

func (c *recordingChannel) Gift(p []byte) (int, error) {
	if c.fail != nil {
		return 0, c.fail
	}
	n := len(p)
	if c.max > 0 {
		n = min(n, c.max)
	}
	c.chunks = append(c.chunks, bytes.Clone(p[:n]))
	return n, nil
}

func (c *recordingChannel) Close() error {
	c.closed = true
	return nil
}

func (c *recordingChannel) bytes() []byte {
	return bytes.Join(c.chunks, nil)
}

func TestProducer_Run(t *testing.T) {
	p, err := NewProducer("bob", 2)
	require.NoError(t, err)

	ch := &recordingChannel{}
	stats, err := p.Run(context.Background(), ch)
	require.NoError(t, err)
	assert.True(t, ch.closed)

	page := mmap.PageSize()
	require.NotEmpty(t, ch.chunks)
	for _, c := range ch.chunks {
		assert.Len(t, c, page)
	}
	assert.Equal(t, len(ch.chunks), stats.Chunks)

	// Each chunk holds whole lines followed by zero padding only.
	var sb strings.Builder
	for _, c := range ch.chunks {
		payload := bytes.TrimRight(c, "\x00")
		require.True(t, bytes.HasSuffix(payload, []byte{'\n'}))
		assert.NotContains(t, string(payload), "\x00")
		sb.Write(payload)
	}
	assert.Equal(t, expected("bob", 2), sb.String())
}

func TestProducer_ShortGifts(t *testing.T) {
	p, err := NewProducer("bob", 1)
	require.NoError(t, err)

	ch := &recordingChannel{max: 100}
	stats, err := p.Run(context.Background(), ch)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Chunks)
	assert.Len(t, ch.bytes(), mmap.PageSize())
	assert.Equal(t, expected("bob", 1), string(bytes.TrimRight(ch.bytes(), "\x00")))
}

func TestProducer_GiftFailure(t *testing.T) {
	p, err := NewProducer("bob", 1)
	require.NoError(t, err)

	cause := errors.New("broken pipe")
	ch := &recordingChannel{fail: cause}
	_, err = p.Run(context.Background(), ch)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "gift", opErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.True(t, ch.closed, "channel is closed on error")
}

func TestProducer_PagePages(t *testing.T) {
	p, err := NewProducer("kitten", 2, WithPagePages(2))
	require.NoError(t, err)

	ch := &recordingChannel{}
	_, err = p.Run(context.Background(), ch)
	require.NoError(t, err)

	for _, c := range ch.chunks {
		assert.Len(t, c, 2*mmap.PageSize())
	}
}

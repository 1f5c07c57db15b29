package giftbuf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/giftbuf/internal/mmap"
)

func paddedPage(lines string) []byte {
	page := make([]byte, mmap.PageSize())
	copy(page, lines)
	return page
}

func TestConsumer_Run(t *testing.T) {
	stream := append(paddedPage("aob\nbob\n"), paddedPage("cob\n")...)

	var out bytes.Buffer
	c, err := NewConsumer(WithOutput(&out))
	require.NoError(t, err)

	stats, err := c.Run(context.Background(), bytes.NewReader(stream))
	require.NoError(t, err)

	assert.Equal(t, "aob\nbob\ncob\n", out.String())
	assert.Equal(t, uint64(3), stats.Candidates)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, int64(out.Len()), stats.Bytes)
}

func TestConsumer_OneByteReads(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConsumer(WithOutput(&out))
	require.NoError(t, err)

	_, err = c.Run(context.Background(), iotest.OneByteReader(bytes.NewReader(paddedPage("xyz\n"))))
	require.NoError(t, err)
	assert.Equal(t, "xyz\n", out.String())
}

func TestConsumer_EmptyStream(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConsumer(WithOutput(&out))
	require.NoError(t, err)

	stats, err := c.Run(context.Background(), bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Zero(t, stats.Chunks)
}

func TestConsumer_ReadError(t *testing.T) {
	cause := errors.New("read failed")
	c, err := NewConsumer(WithOutput(io.Discard))
	require.NoError(t, err)

	_, err = c.Run(context.Background(), iotest.ErrReader(cause))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, RoleConsumer, opErr.Role)
	assert.Equal(t, "read", opErr.Op)
	assert.ErrorIs(t, err, cause)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestConsumer_WriteError(t *testing.T) {
	cause := errors.New("stdout closed")
	c, err := NewConsumer(WithOutput(failingWriter{cause}))
	require.NoError(t, err)

	_, err = c.Run(context.Background(), bytes.NewReader(paddedPage("bob\n")))
	assert.ErrorIs(t, err, cause)
}

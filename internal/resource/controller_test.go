package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(ctx, 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(ctx, 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_MemoryBlocking(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	require.NoError(t, c.AcquireMemory(context.Background(), 100))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.AcquireMemory(ctx, 1)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, c.AcquireMemory(context.Background(), 101), ErrMemoryLimitExceeded)
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Zero(t, c.MemoryLimit())
}

func TestController_NilChecks(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireMemory(context.Background(), 10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}

func TestController_AcquireIO(t *testing.T) {
	t.Run("requests above burst are split", func(t *testing.T) {
		c := NewController(Config{EmitBytesPerSec: 1 << 20})
		require.NoError(t, c.AcquireIO(context.Background(), 1<<20+10))
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := NewController(Config{EmitBytesPerSec: 10})
		require.NoError(t, c.AcquireIO(context.Background(), 10))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, c.AcquireIO(ctx, 10))
	})
}

func TestRateLimitedWriter(t *testing.T) {
	var out bytes.Buffer
	c := NewController(Config{EmitBytesPerSec: 1 << 20})
	w := NewRateLimitedWriter(context.Background(), &out, c)

	n, err := w.Write([]byte("bob\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "bob\n", out.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewRateLimitedWriter(ctx, &out, NewController(Config{EmitBytesPerSec: 1}))
	_, _ = slow.Write([]byte("x"))
	_, err = slow.Write([]byte("y"))
	assert.Error(t, err)
}

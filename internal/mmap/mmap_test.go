package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmap_OpenReadClose(t *testing.T) {
	content := []byte("aardvark\nabacus\n")
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())
	require.NoError(t, m.Advise(AccessSequential))
}

func TestMmap_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
	assert.NoError(t, m.Advise(AccessRandom))
}

func TestMmap_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMapAnon(t *testing.T) {
	t.Run("zero filled and writable", func(t *testing.T) {
		m, err := MapAnon(2 * PageSize())
		require.NoError(t, err)
		defer m.Close()

		data := m.Bytes()
		require.Len(t, data, 2*PageSize())
		for i, b := range data {
			if b != 0 {
				t.Fatalf("byte %d not zero: %d", i, b)
			}
		}
		data[0], data[len(data)-1] = 'x', 'y'
		assert.Equal(t, byte('x'), m.Bytes()[0])
	})

	t.Run("invalid sizes", func(t *testing.T) {
		for _, size := range []int{0, -PageSize(), PageSize() + 1} {
			_, err := MapAnon(size)
			assert.ErrorIs(t, err, ErrInvalidSize, "size=%d", size)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		m, err := MapAnon(PageSize())
		require.NoError(t, err)

		require.NoError(t, m.Close())
		require.NoError(t, m.Close())
		assert.Nil(t, m.Bytes())
		assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
	})
}

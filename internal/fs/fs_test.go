package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLocalFS(t *testing.T) {
	path := writeFile(t, "test.txt", "hello")
	lfs := LocalFS{}

	f, err := lfs.Open(path)
	require.NoError(t, err)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.NoError(t, f.Close())

	info2, err := lfs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info2.Size())

	_, err = lfs.Open(path + ".missing")
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_ReadLimit(t *testing.T) {
	path := writeFile(t, "faulty.txt", "hello world")
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("faulty", Fault{FailAfterBytes: 5})

	f, err := ffs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 32)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	n, err = f.Read(buf)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Zero(t, n)

	assert.Equal(t, int64(5), ffs.BytesRead())
}

func TestFaultyFS_Rules(t *testing.T) {
	path := writeFile(t, "words.gz", "abc")
	custom := errors.New("disk gone")

	ffs := NewFaultyFS(nil)
	ffs.AddRule(".gz", Fault{FailAfterBytes: -1, FailOnOpen: true, Err: custom})

	_, err := ffs.Open(path)
	assert.ErrorIs(t, err, custom)

	ffs.AddRule(".gz", Fault{FailAfterBytes: -1, FailOnClose: true})
	f, err := ffs.Open(path)
	require.NoError(t, err)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.ErrorIs(t, f.Close(), ErrInjected)
}

func TestFaultyFS_Delegation(t *testing.T) {
	path := writeFile(t, "plain.txt", "abc")
	ffs := NewFaultyFS(nil)

	info, err := ffs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())

	f, err := ffs.Open(path)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.NoError(t, f.Close())
}

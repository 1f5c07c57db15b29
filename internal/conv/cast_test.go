//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToUint32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := IntToUint32(0)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("valid max", func(t *testing.T) {
		got, err := IntToUint32(math.MaxUint32)
		assert.NoError(t, err)
		assert.Equal(t, uint32(math.MaxUint32), got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := IntToUint32(-1)
		assert.Error(t, err)
	})

	t.Run("invalid too large", func(t *testing.T) {
		_, err := IntToUint32(math.MaxUint32 + 1)
		assert.Error(t, err)
	})
}

func TestMustIntToUint32(t *testing.T) {
	assert.Equal(t, uint32(4096), MustIntToUint32(4096))
	assert.PanicsWithValue(t,
		"conv: integer overflow: -1 cannot be converted to uint32 (negative)",
		func() { MustIntToUint32(-1) },
	)
}

func TestUint64ToUint32(t *testing.T) {
	got, err := Uint64ToUint32(42)
	assert.NoError(t, err)
	assert.Equal(t, uint32(42), got)

	_, err = Uint64ToUint32(math.MaxUint32 + 1)
	assert.Error(t, err)
}

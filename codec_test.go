package hattrie

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip[V any](t *testing.T, c Codec[V], v V) V {
	t.Helper()
	buf := make([]byte, c.Size())
	c.Put(buf, v)
	return c.Get(buf)
}

func TestCodecSizes(t *testing.T) {
	assert.Equal(t, 1, Uint8().Size())
	assert.Equal(t, 2, Uint16().Size())
	assert.Equal(t, 4, Uint32().Size())
	assert.Equal(t, 8, Uint64().Size())
	assert.Equal(t, 8, Int64().Size())
	assert.Equal(t, 8, Float64().Size())
	assert.Equal(t, 0, Unit().Size())
	assert.Equal(t, 16, FixedBytes(16).Size())
}

func TestCodecRoundTrip(t *testing.T) {
	rng := newTestRNG(t)
	for range 100 {
		u := rng.Uint64()
		assert.Equal(t, uint8(u), roundTrip(t, Uint8(), uint8(u)))
		assert.Equal(t, uint16(u), roundTrip(t, Uint16(), uint16(u)))
		assert.Equal(t, uint32(u), roundTrip(t, Uint32(), uint32(u)))
		assert.Equal(t, u, roundTrip(t, Uint64(), u))
		assert.Equal(t, int64(u), roundTrip(t, Int64(), int64(u)))
		f := math.Float64frombits(u)
		assert.Equal(t, math.Float64bits(f), math.Float64bits(roundTrip(t, Float64(), f)))
	}
	assert.Equal(t, int64(math.MinInt64), roundTrip(t, Int64(), math.MinInt64))
	assert.Equal(t, struct{}{}, roundTrip(t, Unit(), struct{}{}))
}

func TestUint32IsLittleEndian(t *testing.T) {
	buf := make([]byte, 4)
	Uint32().Put(buf, 0x04030201)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestFixedBytes(t *testing.T) {
	c := FixedBytes(3)
	buf := make([]byte, 3)
	c.Put(buf, []byte("abc"))
	got := c.Get(buf)
	assert.Equal(t, []byte("abc"), got)

	got[0] = 'z'
	assert.Equal(t, []byte("abc"), buf, "Get must return a copy")

	assert.Panics(t, func() { c.Put(buf, []byte("ab")) })
	assert.Panics(t, func() { FixedBytes(-1) })
}

func TestTrieWithCodecs(t *testing.T) {
	t.Run("unit", func(t *testing.T) {
		set, err := New(Unit(), WithPromoteThreshold(2), WithBurstThreshold(4))
		require.NoError(t, err)
		for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
			set.Insert([]byte(k), struct{}{})
		}
		assert.Equal(t, 6, set.Len())
		assert.True(t, set.Contains([]byte("e")))
		require.NoError(t, set.Check())
		// The burst consumed every key's only byte, leaving one-byte records.
		assert.Equal(t, 6, set.Stats().Bytes)
	})
	t.Run("fixed bytes", func(t *testing.T) {
		tr, err := New(FixedBytes(2), WithPromoteThreshold(1), WithBurstThreshold(2))
		require.NoError(t, err)
		tr.Insert([]byte("x"), []byte{1, 2})
		tr.Insert([]byte("y"), []byte{3, 4})
		tr.Insert([]byte("z"), []byte{5, 6})
		assert.Equal(t, []byte{3, 4}, tr.MustAt([]byte("y")))
		require.NoError(t, tr.Check())
	})
	t.Run("float64", func(t *testing.T) {
		tr, err := New(Float64())
		require.NoError(t, err)
		tr.Insert([]byte("pi"), math.Pi)
		tr.Insert([]byte("nan"), math.NaN())
		assert.Equal(t, math.Pi, tr.MustAt([]byte("pi")))
		assert.True(t, math.IsNaN(tr.MustAt([]byte("nan"))))
	})
}

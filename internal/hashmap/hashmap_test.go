package hashmap

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hterrors "github.com/tamirms/hattrie/errors"
	"github.com/tamirms/hattrie/internal/hash"
)

const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

func u32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

var animals = []struct {
	key string
	val uint32
}{
	{"cat", 1},
	{"elephant", 3},
	{"rabbit", 5},
	{"bird", 7},
	{"horse", 9},
}

func newAnimals(t *testing.T) *Array {
	t.Helper()
	a := New(3, 4, nil)
	for _, e := range animals {
		_, inserted := a.Insert([]byte(e.key), u32(e.val))
		require.True(t, inserted)
	}
	return a
}

func collect(a *Array) map[string]uint32 {
	out := map[string]uint32{}
	for p := a.Begin(); p != a.End(); p = a.Next(p) {
		out[string(a.Key(p))] = binary.LittleEndian.Uint32(a.Value(p))
	}
	return out
}

func TestEmptyArray(t *testing.T) {
	a := New(3, 4, nil)
	assert.True(t, a.Empty())
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 3, a.BucketCount())
	assert.Equal(t, a.End(), a.Begin())
}

func TestNewRejectsZeroBuckets(t *testing.T) {
	assert.Panics(t, func() { New(0, 4, nil) })
}

func TestInsert(t *testing.T) {
	a := New(3, 4, nil)

	p1, inserted := a.Insert([]byte("hello"), u32(3))
	require.True(t, inserted)
	assert.Equal(t, "hello", string(a.Key(p1)))
	assert.Equal(t, u32(3), a.Value(p1))
	assert.Equal(t, 1, a.Len())
	assert.False(t, a.Empty())

	p2, inserted := a.Insert([]byte("hi"), u32(5))
	require.True(t, inserted)
	assert.Equal(t, "hi", string(a.Key(p2)))
	assert.Equal(t, u32(5), a.Value(p2))
	assert.Equal(t, 2, a.Len())
}

func TestInsertExistingKeepsOriginal(t *testing.T) {
	a := newAnimals(t)
	home := a.BucketIndex([]byte("rabbit"))
	before := a.BucketLen(home)

	p, inserted := a.Insert([]byte("rabbit"), u32(500))
	assert.False(t, inserted)
	assert.Equal(t, u32(5), a.Value(p))
	assert.Equal(t, before, a.BucketLen(home))
	assert.Equal(t, 5, a.Len())
}

func TestBucketSizes(t *testing.T) {
	a := newAnimals(t)

	var want [3]int
	for _, e := range animals {
		want[a.BucketIndex([]byte(e.key))]++
	}
	sum := 0
	for i := range 3 {
		assert.Equal(t, want[i], a.BucketLen(i), "bucket %d", i)
		sum += a.BucketLen(i)
	}
	assert.Equal(t, 5, sum)
}

func TestBucketIndexUsesFullHash(t *testing.T) {
	a := New(3, 4, nil)
	for _, e := range animals {
		key := []byte(e.key)
		assert.Equal(t, int(hash.Sum32(key)%3), a.BucketIndex(key), e.key)
	}
	// Pinned placements for the default hash.
	assert.Equal(t, 0, a.BucketIndex([]byte("cat")))
	assert.Equal(t, 1, a.BucketIndex([]byte("elephant")))
	assert.Equal(t, 0, a.BucketIndex([]byte("rabbit")))
	assert.Equal(t, 2, a.BucketIndex([]byte("bird")))
	assert.Equal(t, 2, a.BucketIndex([]byte("horse")))
}

func TestFind(t *testing.T) {
	a := newAnimals(t)
	for _, e := range animals {
		p, ok := a.Find([]byte(e.key))
		require.True(t, ok, e.key)
		assert.Equal(t, u32(e.val), a.Value(p))
	}
	p, ok := a.Find([]byte("tiger"))
	assert.False(t, ok)
	assert.Equal(t, a.End(), p)
}

func TestIterationVisitsEverything(t *testing.T) {
	a := newAnimals(t)
	got := collect(a)
	require.Len(t, got, 5)
	for _, e := range animals {
		assert.Equal(t, e.val, got[e.key])
	}
}

func TestIterationOrder(t *testing.T) {
	a := newAnimals(t)
	prev := -1
	for p := a.Begin(); p != a.End(); p = a.Next(p) {
		assert.GreaterOrEqual(t, p.Bucket, prev, "positions must advance in bucket order")
		prev = p.Bucket
	}
}

func TestEraseAdvancesAcrossBuckets(t *testing.T) {
	a := newAnimals(t)

	// Erase every record via the returned iterator, starting at Begin.
	seen := 0
	for p := a.Begin(); p != a.End(); {
		p = a.Erase(p)
		seen++
		if p != a.End() {
			assert.Less(t, p.Off, a.buckets[p.Bucket].End(), "iterator must point at a record")
		}
	}
	assert.Equal(t, 5, seen)
	assert.True(t, a.Empty())
}

func TestEraseFoundKey(t *testing.T) {
	a := newAnimals(t)
	p, ok := a.Find([]byte("bird"))
	require.True(t, ok)
	a.Erase(p)

	_, ok = a.Find([]byte("bird"))
	assert.False(t, ok)
	assert.Equal(t, 4, a.Len())
	for _, key := range []string{"cat", "elephant", "rabbit", "horse"} {
		_, ok := a.Find([]byte(key))
		assert.True(t, ok, key)
	}
}

func TestEraseLastOfBucketSkipsEmptyBuckets(t *testing.T) {
	a := New(8, 4, func([]byte) uint32 { return 2 })
	p, _ := a.Insert([]byte("only"), u32(1))
	assert.Equal(t, a.End(), a.Erase(p))
}

func TestClear(t *testing.T) {
	a := newAnimals(t)
	a.Clear()
	assert.True(t, a.Empty())
	assert.Equal(t, 3, a.BucketCount())
	assert.Equal(t, a.End(), a.Begin())
}

func TestCheckDetectsMisplacedKey(t *testing.T) {
	a := newAnimals(t)
	require.NoError(t, a.Check())

	// Put a key in a bucket that is not its home.
	key := []byte("cat")
	wrong := (a.BucketIndex(key) + 1) % a.BucketCount()
	a.buckets[wrong].Append(key, u32(0))
	assert.ErrorIs(t, a.Check(), hterrors.ErrCorruptBucket)
}

func TestCheckDetectsDuplicate(t *testing.T) {
	a := newAnimals(t)
	key := []byte("horse")
	a.buckets[a.BucketIndex(key)].Append(key, u32(0))
	assert.ErrorIs(t, a.Check(), hterrors.ErrCorruptBucket)
}

// TestAgainstMap drives random inserts and erases and compares with a map.
func TestAgainstMap(t *testing.T) {
	rng := newTestRNG(t)
	for _, id := range []hash.ID{hash.Murmur3, hash.XXHash, hash.XXH3} {
		fn, err := hash.New(id)
		require.NoError(t, err)
		a := New(7, 4, fn)
		model := map[string]uint32{}

		for step := range 3000 {
			key := []byte(fmt.Sprintf("k%d", rng.IntN(500)))
			if rng.IntN(3) > 0 {
				v := rng.Uint32()
				p, inserted := a.Insert(key, u32(v))
				_, existed := model[string(key)]
				require.Equal(t, !existed, inserted, "step %d", step)
				if inserted {
					model[string(key)] = v
				}
				assert.Equal(t, model[string(key)], binary.LittleEndian.Uint32(a.Value(p)))
			} else if p, ok := a.Find(key); ok {
				a.Erase(p)
				delete(model, string(key))
			}
		}

		require.Equal(t, len(model), a.Len(), id.String())
		assert.Equal(t, model, collect(a), id.String())
		require.NoError(t, a.Check())
	}
}

package hattrie

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a deterministic RNG seeded from the test name, so every
// test sees its own reproducible stream.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// fillFromRNG fills buf with pseudo-random bytes from rng.
func fillFromRNG(rng *rand.Rand, buf []byte) {
	for i := 0; i+8 <= len(buf); i += 8 {
		binary.LittleEndian.PutUint64(buf[i:], rng.Uint64())
	}
	if tail := len(buf) % 8; tail > 0 {
		v := rng.Uint64()
		start := len(buf) - tail
		for j := range tail {
			buf[start+j] = byte(v >> (j * 8))
		}
	}
}

// generateRandomKeys creates n distinct pseudo-random keys with lengths in
// [minLen, maxLen].
func generateRandomKeys(rng *rand.Rand, n, minLen, maxLen int) [][]byte {
	seen := make(map[string]struct{}, n)
	keys := make([][]byte, 0, n)
	for len(keys) < n {
		key := make([]byte, minLen+rng.IntN(maxLen-minLen+1))
		fillFromRNG(rng, key)
		if _, dup := seen[string(key)]; dup {
			continue
		}
		seen[string(key)] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// smallTrie returns a trie with the thresholds used by the worked examples:
// N=1, M=3 and three buckets per hybrid leaf.
func smallTrie(t testing.TB, opts ...Option) *Trie[uint32] {
	t.Helper()
	opts = append([]Option{
		WithPromoteThreshold(1),
		WithBurstThreshold(3),
		WithBucketCount(3),
	}, opts...)
	tr, err := New(Uint32(), opts...)
	require.NoError(t, err)
	return tr
}

// contents drains the trie through its iterator into a map.
func contents[V any](t testing.TB, tr *Trie[V]) map[string]V {
	t.Helper()
	out := make(map[string]V, tr.Len())
	for it := tr.Begin(); it.Valid(); it.Next() {
		k := string(it.Key())
		_, dup := out[k]
		require.False(t, dup, "key %q visited twice", k)
		out[k] = it.Value()
	}
	return out
}

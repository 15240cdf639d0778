// Package hash provides the 32-bit hash functions used to route keys to the
// buckets of a bucket array.
//
// The hashes are deterministic across runs and processes but are not meant
// to resist adversarial input.
package hash

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	hterrors "github.com/tamirms/hattrie/errors"
)

// Seed is the fixed MurmurHash3 seed.
const Seed uint32 = 0x13579bdf

// Func hashes a key to 32 bits.
type Func func(key []byte) uint32

// ID identifies a hash function. Values are stable and may be recorded by
// callers alongside data routed with them.
type ID uint8

const (
	// Murmur3 is MurmurHash3 x86_32 with Seed: 4-byte blocks mixed with
	// multiply/rotate/xor, a tail for the last 0-3 bytes, and the fmix32
	// avalanche.
	Murmur3 ID = 0

	// XXHash is xxHash64 folded to 32 bits.
	XXHash ID = 1

	// XXH3 is XXH3-64 folded to 32 bits.
	XXH3 ID = 2
)

// String returns the hash name.
func (id ID) String() string {
	switch id {
	case Murmur3:
		return "murmur3"
	case XXHash:
		return "xxhash"
	case XXH3:
		return "xxh3"
	default:
		return "unknown"
	}
}

// Parse returns the ID named by s.
func Parse(s string) (ID, error) {
	for _, id := range []ID{Murmur3, XXHash, XXH3} {
		if id.String() == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", hterrors.ErrUnknownHash, s)
}

// New returns the hash function for id.
func New(id ID) (Func, error) {
	switch id {
	case Murmur3:
		return Sum32, nil
	case XXHash:
		return sumXXHash, nil
	case XXH3:
		return sumXXH3, nil
	default:
		return nil, fmt.Errorf("%w: id %d", hterrors.ErrUnknownHash, id)
	}
}

// Sum32 is the default hash: MurmurHash3 x86_32 seeded with Seed.
func Sum32(key []byte) uint32 {
	return murmur3.Sum32WithSeed(key, Seed)
}

func sumXXHash(key []byte) uint32 {
	return fold(xxhash.Sum64(key))
}

func sumXXH3(key []byte) uint32 {
	return fold(xxh3.Hash(key))
}

// fold xors the halves of a 64-bit hash so both contribute to the low bits
// used by Reduce.
func fold(h uint64) uint32 {
	return uint32(h) ^ uint32(h>>32)
}

// Reduce maps a full 32-bit hash to [0, n) by modulo. The whole hash takes
// part in the reduction; it is never truncated first.
// Precondition: n > 0.
func Reduce(h uint32, n int) int {
	return int(h % uint32(n))
}

package hattrie

import (
	"github.com/tamirms/hattrie/internal/hash"
)

// HashAlgorithm identifies the hash function that routes keys to buckets in
// hybrid leaves. The choice affects only bucket placement, never the set of
// keys a Trie reports.
type HashAlgorithm uint8

const (
	// HashMurmur3 uses MurmurHash3 x86_32 with a fixed seed. This is the default.
	HashMurmur3 = HashAlgorithm(hash.Murmur3)

	// HashXXHash uses xxHash64 folded to 32 bits.
	HashXXHash = HashAlgorithm(hash.XXHash)

	// HashXXH3 uses XXH3-64 folded to 32 bits.
	HashXXH3 = HashAlgorithm(hash.XXH3)
)

// String returns the algorithm name.
func (a HashAlgorithm) String() string {
	return hash.ID(a).String()
}

// ParseHashAlgorithm returns the algorithm with the given name
// ("murmur3", "xxhash" or "xxh3").
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	id, err := hash.Parse(name)
	return HashAlgorithm(id), err
}

// newHashFunc resolves the bucket hash for a.
func newHashFunc(a HashAlgorithm) (hash.Func, error) {
	return hash.New(hash.ID(a))
}

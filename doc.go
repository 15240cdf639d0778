// Package hattrie implements a HAT-trie: a cache-conscious burst trie whose
// leaves store keys and fixed-size values inline in packed byte buckets.
//
// Keys are arbitrary byte strings of at most 255 bytes. Values are encoded by
// a Codec into a fixed number of bytes and stored directly after their key,
// so a leaf holding k keys costs one allocation per bucket and no per-key
// pointers.
//
// # Basic Usage
//
//	t, err := hattrie.New(hattrie.Uint32())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t.Insert([]byte("cat"), 1)
//	t.Insert([]byte("horse"), 9)
//
//	if v, err := t.At([]byte("cat")); err == nil {
//	    fmt.Println(v)
//	}
//	for key, v := range t.All() {
//	    fmt.Printf("%s=%d\n", key, v)
//	}
//
// # Structure
//
// A fresh trie is a single pure leaf: one packed bucket searched linearly.
// When a pure leaf reaches the promote threshold N it is rehashed into a
// hybrid leaf, a fixed array of buckets indexed by a 32-bit hash. When a
// hybrid leaf grows past the burst threshold M it is replaced by an internal
// node with 257 slots, and its records are redistributed by their first byte
// into new pure leaves (slot 0 holds the key that ends at the node). Erasing
// never merges or demotes nodes.
//
// Iteration visits leaves in slot order and records within a leaf in storage
// order. It is deterministic for a given insertion history but not sorted.
//
// # Package Structure
//
//   - Public API: trie.go (New, Insert, Find, Erase, At), iterator.go
//   - Configuration: options.go (Option, With* functions), algorithm.go
//   - Values: codec.go (Codec and the built-in codecs)
//   - Node model: node.go (pure/hybrid leaves, promotion, burst)
//   - Storage: internal/bucket (packed bucket), internal/hashmap (bucket
//     array), internal/encoding (record layout), internal/hash (bucket hashes)
package hattrie

// Package hashmap implements the bucket array: a fixed number of packed
// buckets indexed by a 32-bit hash of the key.
//
// The array enforces key uniqueness by looking a key up in its home bucket
// before appending it. The bucket count is fixed for the array's lifetime;
// there is no rehash on growth.
package hashmap

import (
	"fmt"

	hterrors "github.com/tamirms/hattrie/errors"
	"github.com/tamirms/hattrie/internal/bucket"
	"github.com/tamirms/hattrie/internal/hash"
)

// Pos identifies a record: the bucket it lives in and its byte offset within
// that bucket. The end position has Bucket == BucketCount().
//
// A Pos into bucket i is invalidated by any mutation of bucket i. Positions
// into other buckets stay valid.
type Pos struct {
	Bucket int
	Off    int
}

// Array is a fixed-size hash table of packed buckets.
type Array struct {
	buckets   []bucket.Bucket
	hash      hash.Func
	valueSize int
}

// New creates an array of bucketCount empty buckets whose records carry
// valueSize-byte values. hashFn routes keys; nil selects hash.Sum32.
func New(bucketCount, valueSize int, hashFn hash.Func) *Array {
	if bucketCount <= 0 {
		panic(fmt.Sprintf("hashmap: bucket count %d must be positive", bucketCount))
	}
	if hashFn == nil {
		hashFn = hash.Sum32
	}
	a := &Array{
		buckets:   make([]bucket.Bucket, bucketCount),
		hash:      hashFn,
		valueSize: valueSize,
	}
	for i := range a.buckets {
		a.buckets[i] = bucket.New(valueSize)
	}
	return a
}

// BucketCount returns the fixed number of buckets.
func (a *Array) BucketCount() int { return len(a.buckets) }

// BucketLen returns the number of records in bucket i.
func (a *Array) BucketLen(i int) int { return a.buckets[i].Len() }

// BucketIndex returns the home bucket of key.
func (a *Array) BucketIndex(key []byte) int {
	return hash.Reduce(a.hash(key), len(a.buckets))
}

// ValueSize returns the fixed value size of the array's records.
func (a *Array) ValueSize() int { return a.valueSize }

// Len returns the number of records. It is O(BucketCount).
func (a *Array) Len() int {
	n := 0
	for i := range a.buckets {
		n += a.buckets[i].Len()
	}
	return n
}

// Empty reports whether the array holds no records.
func (a *Array) Empty() bool {
	for i := range a.buckets {
		if !a.buckets[i].Empty() {
			return false
		}
	}
	return true
}

// Bytes returns the total packed size of all buckets.
func (a *Array) Bytes() int {
	n := 0
	for i := range a.buckets {
		n += a.buckets[i].ByteLen()
	}
	return n
}

// End returns the past-the-end position.
func (a *Array) End() Pos { return Pos{Bucket: len(a.buckets)} }

// Begin returns the position of the first record in bucket order.
func (a *Array) Begin() Pos {
	return a.settle(Pos{})
}

// Next returns the position after p, crossing bucket boundaries as needed.
func (a *Array) Next(p Pos) Pos {
	p.Off = a.buckets[p.Bucket].Next(p.Off)
	return a.settle(p)
}

// settle moves p forward to the first record at or after it, skipping the
// end of its bucket and any empty buckets. Callers never observe a bucket
// boundary.
func (a *Array) settle(p Pos) Pos {
	for p.Bucket < len(a.buckets) {
		if p.Off < a.buckets[p.Bucket].End() {
			return p
		}
		p.Bucket++
		p.Off = 0
	}
	return a.End()
}

// Key returns the key at p. The result aliases bucket storage.
func (a *Array) Key(p Pos) []byte { return a.buckets[p.Bucket].Key(p.Off) }

// Value returns the value bytes at p. Writes through the result update the
// record in place.
func (a *Array) Value(p Pos) []byte { return a.buckets[p.Bucket].Value(p.Off) }

// Find returns the position of key, or (End(), false).
func (a *Array) Find(key []byte) (Pos, bool) {
	i := a.BucketIndex(key)
	off, ok := a.buckets[i].Find(key)
	if !ok {
		return a.End(), false
	}
	return Pos{Bucket: i, Off: off}, true
}

// Insert adds key with value unless key is already present. It returns the
// position of the record holding key and whether it was inserted. An
// existing record is left untouched.
func (a *Array) Insert(key, value []byte) (Pos, bool) {
	i := a.BucketIndex(key)
	b := &a.buckets[i]
	if off, ok := b.Find(key); ok {
		return Pos{Bucket: i, Off: off}, false
	}
	return Pos{Bucket: i, Off: b.Append(key, value)}, true
}

// Erase removes the record at p and returns the position of the next record
// in iteration order, which may be in a later bucket, or End().
func (a *Array) Erase(p Pos) Pos {
	p.Off = a.buckets[p.Bucket].Erase(p.Off)
	return a.settle(p)
}

// Clear empties every bucket. The bucket count is unchanged.
func (a *Array) Clear() {
	for i := range a.buckets {
		a.buckets[i].Clear()
	}
}

// Check verifies every bucket's invariants, that every key lives in its home
// bucket, and that no key appears twice.
func (a *Array) Check() error {
	for i := range a.buckets {
		b := &a.buckets[i]
		if err := b.Check(); err != nil {
			return fmt.Errorf("bucket %d: %w", i, err)
		}
		for off := b.Begin(); off != b.End(); off = b.Next(off) {
			key := b.Key(off)
			if home := a.BucketIndex(key); home != i {
				return fmt.Errorf("%w: bucket %d: key %q belongs in bucket %d",
					hterrors.ErrCorruptBucket, i, key, home)
			}
			if first, _ := b.Find(key); first != off {
				return fmt.Errorf("%w: bucket %d: duplicate key %q", hterrors.ErrCorruptBucket, i, key)
			}
		}
	}
	return nil
}

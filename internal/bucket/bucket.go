// Package bucket implements the packed bucket: a single owned byte buffer
// holding length-prefixed keys with their fixed-size values inline.
//
// Every mutation reallocates the buffer to its exact new size. There is no
// spare capacity, so a bucket costs its records plus one slice header. Insert
// and erase are therefore O(ByteLen); that is the price of the density.
//
// A Bucket does not enforce key uniqueness. Append always appends, and Find
// returns the first match. Callers that need a map (the bucket array) must
// Find before Append.
package bucket

import (
	"fmt"

	hterrors "github.com/tamirms/hattrie/errors"
	"github.com/tamirms/hattrie/internal/encoding"
)

// Bucket is a packed sequence of records in insertion order.
//
// Positions are byte offsets into the buffer. Any mutation invalidates every
// outstanding offset and every key/value view returned by the bucket.
//
// Buckets are move-only: copying a Bucket aliases its buffer. Transfer
// ownership with Take instead.
type Bucket struct {
	buf       []byte
	n         int
	valueSize int
}

// New returns an empty bucket whose records carry valueSize-byte values.
func New(valueSize int) Bucket {
	if valueSize < 0 {
		panic("bucket: negative value size")
	}
	return Bucket{valueSize: valueSize}
}

// FromPacked adopts buf, which must contain exactly count records encoded
// with valueSize-byte values and nothing else. The bucket takes ownership of
// buf. Returns an error wrapping ErrCorruptBucket if buf is malformed.
func FromPacked(buf []byte, count, valueSize int) (Bucket, error) {
	b := Bucket{buf: buf, n: count, valueSize: valueSize}
	if len(buf) == 0 {
		b.buf = nil
	}
	if err := b.Check(); err != nil {
		return Bucket{valueSize: valueSize}, err
	}
	return b, nil
}

// Len returns the number of records.
func (b *Bucket) Len() int { return b.n }

// ByteLen returns the total encoded size of all records.
func (b *Bucket) ByteLen() int { return len(b.buf) }

// ValueSize returns the fixed value size of the bucket's records.
func (b *Bucket) ValueSize() int { return b.valueSize }

// Empty reports whether the bucket holds no records.
func (b *Bucket) Empty() bool { return b.n == 0 }

// Begin returns the offset of the first record. Equal to End when empty.
func (b *Bucket) Begin() int { return 0 }

// End returns the past-the-end offset.
func (b *Bucket) End() int { return len(b.buf) }

// Next returns the offset of the record following the one at off.
func (b *Bucket) Next(off int) int {
	return off + b.recordSize(off)
}

// Key returns the key of the record at off. The result aliases the buffer.
func (b *Bucket) Key(off int) []byte {
	return encoding.Record(b.buf[off:]).Key()
}

// Value returns the value bytes of the record at off. The result aliases the
// buffer, so writes through it update the record in place.
func (b *Bucket) Value(off int) []byte {
	start := off + encoding.Record(b.buf[off:]).Size()
	return b.buf[start : start+b.valueSize : start+b.valueSize]
}

func (b *Bucket) recordSize(off int) int {
	return encoding.Record(b.buf[off:]).Size() + b.valueSize
}

// Find scans from the first record and returns the offset of the first
// record whose key equals key. Returns (End(), false) if there is none.
func (b *Bucket) Find(key []byte) (int, bool) {
	for off := 0; off < len(b.buf); off = b.Next(off) {
		if encoding.Record(b.buf[off:]).Equal(key) {
			return off, true
		}
	}
	return len(b.buf), false
}

// Append adds a record at the end of the bucket and returns its offset.
// value must be exactly ValueSize bytes. Duplicate keys are not detected.
//
// The key length is validated before the bucket is touched.
func (b *Bucket) Append(key, value []byte) int {
	size := encoding.RecordSize(len(key), b.valueSize)
	if len(value) != b.valueSize {
		panic(fmt.Sprintf("bucket: value is %d bytes, want %d", len(value), b.valueSize))
	}

	old := len(b.buf)
	buf := make([]byte, old+size)
	copy(buf, b.buf)
	b.buf = buf

	off := old + encoding.EncodeKey(buf[old:], key)
	copy(buf[off:], value)
	b.n++
	return old
}

// Erase removes the record at off and returns the offset of its successor,
// which is End() if the erased record was the last one. An emptied bucket
// releases its buffer.
func (b *Bucket) Erase(off int) int {
	if off < 0 || off >= len(b.buf) {
		panic(fmt.Sprintf("bucket: erase at offset %d outside [0, %d)", off, len(b.buf)))
	}
	size := b.recordSize(off)

	if b.n == 1 {
		if size != len(b.buf) {
			panic(fmt.Errorf("%w: last record spans %d of %d bytes", hterrors.ErrCorruptBucket, size, len(b.buf)))
		}
		b.Clear()
		return 0
	}

	buf := make([]byte, len(b.buf)-size)
	copy(buf, b.buf[:off])
	copy(buf[off:], b.buf[off+size:])
	b.buf = buf
	b.n--
	return off
}

// Clear removes every record and releases the buffer.
func (b *Bucket) Clear() {
	b.buf = nil
	b.n = 0
}

// Take transfers ownership of the records to the returned bucket in O(1).
// The receiver is left empty and keeps its value size.
func (b *Bucket) Take() Bucket {
	out := Bucket{buf: b.buf, n: b.n, valueSize: b.valueSize}
	b.buf = nil
	b.n = 0
	return out
}

// Bytes returns the packed buffer. It aliases the bucket's storage and is
// only valid until the next mutation.
func (b *Bucket) Bytes() []byte { return b.buf }

// Check walks the buffer and verifies that the record count and byte length
// agree with the encoded records.
func (b *Bucket) Check() error {
	count := 0
	off := 0
	for off < len(b.buf) {
		size := encoding.Record(b.buf[off:]).Size() + b.valueSize
		if off+size > len(b.buf) {
			return fmt.Errorf("%w: record at offset %d (size %d) overruns %d-byte buffer",
				hterrors.ErrCorruptBucket, off, size, len(b.buf))
		}
		off += size
		count++
	}
	if count != b.n {
		return fmt.Errorf("%w: counted %d records, header says %d", hterrors.ErrCorruptBucket, count, b.n)
	}
	return nil
}

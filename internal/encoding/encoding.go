// Package encoding provides the byte-level record layout shared by the
// packed buckets: length-prefixed keys and fixed-width little-endian values.
//
// A record is laid out as
//
//	[1-byte key length][key bytes][value bytes]
//
// with no padding and no alignment guarantees. Keys are opaque 8-bit data;
// nothing is escaped.
package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"

	hterrors "github.com/tamirms/hattrie/errors"
)

const (
	// MaxKeyLen is the longest key representable by a one-byte length prefix.
	MaxKeyLen = 255

	// PrefixSize is the size of the length prefix in bytes.
	PrefixSize = 1
)

// CheckKey returns an error wrapping ErrKeyTooLong if key cannot be encoded.
func CheckKey(key []byte) error {
	if len(key) > MaxKeyLen {
		return fmt.Errorf("%w: got %d bytes", hterrors.ErrKeyTooLong, len(key))
	}
	return nil
}

// mustCheckLen panics if a key of length n cannot be encoded.
// A key this long is a caller bug that must be caught at the input boundary.
func mustCheckLen(n int) {
	if n > MaxKeyLen {
		panic(fmt.Errorf("%w: got %d bytes", hterrors.ErrKeyTooLong, n))
	}
}

// KeySize returns the encoded size of a key of length n.
// Panics if n > MaxKeyLen.
func KeySize(n int) int {
	mustCheckLen(n)
	return PrefixSize + n
}

// RecordSize returns the full record size for a key of length n and a value
// of valueSize bytes.
func RecordSize(n, valueSize int) int {
	return KeySize(n) + valueSize
}

// EncodeKey writes the length prefix and key bytes to dst and returns the
// number of bytes written. The length is validated before anything is
// written; dst must have room for KeySize(len(key)) bytes.
func EncodeKey(dst []byte, key []byte) int {
	mustCheckLen(len(key))
	_ = dst[len(key)] // bounds check hint
	dst[0] = byte(len(key))
	copy(dst[PrefixSize:], key)
	return PrefixSize + len(key)
}

// Record is a decoding view over an encoded key at the start of a byte slice.
// The slice may continue past the key (typically into the value and further
// records); only the prefix-declared bytes are interpreted.
type Record []byte

// Len returns the key length read from the prefix byte.
func (r Record) Len() int {
	return int(r[0])
}

// Size returns the encoded key size: prefix plus key bytes.
func (r Record) Size() int {
	return PrefixSize + r.Len()
}

// Key returns the key bytes. The result aliases the underlying buffer.
func (r Record) Key() []byte {
	n := r.Len()
	return r[PrefixSize : PrefixSize+n : PrefixSize+n]
}

// Equal reports whether the record's key equals key, comparing the length
// first and the raw bytes second.
func (r Record) Equal(key []byte) bool {
	if r.Len() != len(key) {
		return false
	}
	return bytes.Equal(r[PrefixSize:PrefixSize+len(key)], key)
}

// DecodeKey returns a copy of the key encoded at the start of src.
func DecodeKey(src []byte) []byte {
	return bytes.Clone(Record(src).Key())
}

// PutUint writes the low size bytes of v to dst in little-endian order.
// Optimized for common value sizes (1, 2, 4, 8 bytes).
// Precondition: len(dst) >= size, size <= 8.
func PutUint(dst []byte, v uint64, size int) {
	switch size {
	case 0:
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(dst, v)
	default:
		for i := range size {
			dst[i] = byte(v >> (i * 8))
		}
	}
}

// Uint reads a little-endian unsigned integer of size bytes from src.
// This is the read counterpart to PutUint.
// Precondition: len(src) >= size, size <= 8.
func Uint(src []byte, size int) uint64 {
	switch size {
	case 0:
		return 0
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(src))
	case 4:
		return uint64(binary.LittleEndian.Uint32(src))
	case 8:
		return binary.LittleEndian.Uint64(src)
	default:
		var v uint64
		for i := range size {
			v |= uint64(src[i]) << (i * 8)
		}
		return v
	}
}

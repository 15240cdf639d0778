package hattrie

import (
	"fmt"
	"math"

	"github.com/tamirms/hattrie/internal/encoding"
)

// Codec converts values to and from their fixed-size inline encoding.
//
// Every value is stored as exactly Size() bytes directly after its key, so
// the size must not depend on the value. Put and Get must round-trip.
type Codec[V any] interface {
	// Size returns the encoded size in bytes. Zero is allowed (a set).
	Size() int

	// Put encodes v into dst, which is exactly Size() bytes.
	Put(dst []byte, v V)

	// Get decodes a value from src, which is exactly Size() bytes.
	Get(src []byte) V
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type uintCodec[T unsigned] struct {
	size int
}

func (c uintCodec[T]) Size() int { return c.size }
func (c uintCodec[T]) Put(dst []byte, v T) { encoding.PutUint(dst, uint64(v), c.size) }
func (c uintCodec[T]) Get(src []byte) T { return T(encoding.Uint(src, c.size)) }

// Uint8 returns a 1-byte codec.
func Uint8() Codec[uint8] { return uintCodec[uint8]{size: 1} }

// Uint16 returns a 2-byte little-endian codec.
func Uint16() Codec[uint16] { return uintCodec[uint16]{size: 2} }

// Uint32 returns a 4-byte little-endian codec.
func Uint32() Codec[uint32] { return uintCodec[uint32]{size: 4} }

// Uint64 returns an 8-byte little-endian codec.
func Uint64() Codec[uint64] { return uintCodec[uint64]{size: 8} }

type int64Codec struct{}

func (int64Codec) Size() int { return 8 }
func (int64Codec) Put(dst []byte, v int64) { encoding.PutUint(dst, uint64(v), 8) }
func (int64Codec) Get(src []byte) int64 { return int64(encoding.Uint(src, 8)) }

// Int64 returns an 8-byte little-endian two's complement codec.
func Int64() Codec[int64] { return int64Codec{} }

type float64Codec struct{}

func (float64Codec) Size() int { return 8 }
func (float64Codec) Put(dst []byte, v float64) {
	encoding.PutUint(dst, math.Float64bits(v), 8)
}
func (float64Codec) Get(src []byte) float64 {
	return math.Float64frombits(encoding.Uint(src, 8))
}

// Float64 returns an 8-byte IEEE 754 codec. NaN payloads are preserved.
func Float64() Codec[float64] { return float64Codec{} }

type unitCodec struct{}

func (unitCodec) Size() int { return 0 }
func (unitCodec) Put([]byte, struct{}) {}
func (unitCodec) Get([]byte) struct{} { return struct{}{} }

// Unit returns a zero-size codec, turning a Trie into a set of keys.
func Unit() Codec[struct{}] { return unitCodec{} }

type fixedBytesCodec struct {
	n int
}

func (c fixedBytesCodec) Size() int { return c.n }

func (c fixedBytesCodec) Put(dst []byte, v []byte) {
	if len(v) != c.n {
		panic(fmt.Sprintf("hattrie: FixedBytes(%d) value has %d bytes", c.n, len(v)))
	}
	copy(dst, v)
}

func (c fixedBytesCodec) Get(src []byte) []byte {
	return append([]byte(nil), src...)
}

// FixedBytes returns a codec for byte slices of exactly n bytes. Put panics
// on any other length; Get returns a copy.
func FixedBytes(n int) Codec[[]byte] {
	if n < 0 {
		panic("hattrie: FixedBytes size must not be negative")
	}
	return fixedBytesCodec{n: n}
}

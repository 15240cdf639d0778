package hattrie

import (
	"fmt"

	hterrors "github.com/tamirms/hattrie/errors"
	"github.com/tamirms/hattrie/internal/bucket"
	"github.com/tamirms/hattrie/internal/encoding"
	"github.com/tamirms/hattrie/internal/hash"
	"github.com/tamirms/hattrie/internal/hashmap"
)

const (
	// numSlots is the child count of an internal node: one slot per byte
	// value plus slot 0 for keys that end at the node.
	numSlots = 256 + 1

	// endSlot holds the key (at most one) that is fully consumed on arrival.
	endSlot = 0
)

// slotFor returns the child slot key selects at depth and how many key bytes
// that step consumes.
func slotFor(key []byte, depth int) (slot, consumed int) {
	if depth == len(key) {
		return endSlot, 0
	}
	return int(key[depth]) + 1, 1
}

// nodeKind names the three node states.
type nodeKind uint8

const (
	kindInternal nodeKind = iota
	kindPure
	kindHybrid
)

func (k nodeKind) String() string {
	switch k {
	case kindInternal:
		return "internal"
	case kindPure:
		return "pure"
	case kindHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// node is a closed sum type: *internalNode, *pureLeaf or *hybridLeaf.
// The unexported method keeps other implementations out; type switches over
// node end in a panicking default.
type node interface {
	kind() nodeKind
}

// internalNode routes by the next key byte. Absent slots are nil.
type internalNode struct {
	children [numSlots]node
}

func (*internalNode) kind() nodeKind { return kindInternal }

// span is the range of byte values a leaf was split for. A leaf in an
// internal node's slot b+1 has lo == hi == b; the root leaf covers every
// byte; the leaf in endSlot has end set and holds only the empty suffix.
type span struct {
	lo, hi byte
	end    bool
}

var fullSpan = span{lo: 0x00, hi: 0xff}

func spanForSlot(slot int) span {
	if slot == endSlot {
		return span{end: true}
	}
	b := byte(slot - 1)
	return span{lo: b, hi: b}
}

// admits reports whether a leaf with this span may sit in slot.
func (s span) admits(slot int) bool {
	if slot == endSlot {
		return s.end
	}
	b := byte(slot - 1)
	return !s.end && s.lo <= b && b <= s.hi
}

// leaf is the storage contract shared by pure and hybrid leaves. Keys passed
// to a leaf are suffixes: the bytes consumed by internal nodes above it are
// stripped. Positions follow hashmap.Pos; a pure leaf uses bucket 0.
type leaf interface {
	node
	count() int
	bytes() int
	leafSpan() span
	begin() hashmap.Pos
	next(p hashmap.Pos) hashmap.Pos
	valid(p hashmap.Pos) bool
	key(p hashmap.Pos) []byte
	value(p hashmap.Pos) []byte
	find(suffix []byte) (hashmap.Pos, bool)
	insert(suffix, value []byte) (hashmap.Pos, bool)
	erase(p hashmap.Pos) hashmap.Pos
	check() error
}

// pureLeaf stores its records in one packed bucket and scans it linearly.
type pureLeaf struct {
	b bucket.Bucket
	span
}

func newPureLeaf(valueSize int, s span) *pureLeaf {
	return &pureLeaf{b: bucket.New(valueSize), span: s}
}

func (*pureLeaf) kind() nodeKind       { return kindPure }
func (l *pureLeaf) count() int         { return l.b.Len() }
func (l *pureLeaf) bytes() int         { return l.b.ByteLen() }
func (l *pureLeaf) leafSpan() span     { return l.span }
func (l *pureLeaf) begin() hashmap.Pos { return hashmap.Pos{Off: l.b.Begin()} }
func (l *pureLeaf) valid(p hashmap.Pos) bool {
	return p.Bucket == 0 && p.Off < l.b.End()
}

func (l *pureLeaf) next(p hashmap.Pos) hashmap.Pos {
	return hashmap.Pos{Off: l.b.Next(p.Off)}
}

func (l *pureLeaf) key(p hashmap.Pos) []byte   { return l.b.Key(p.Off) }
func (l *pureLeaf) value(p hashmap.Pos) []byte { return l.b.Value(p.Off) }

func (l *pureLeaf) find(suffix []byte) (hashmap.Pos, bool) {
	off, ok := l.b.Find(suffix)
	return hashmap.Pos{Off: off}, ok
}

// insert appends suffix unless it is present; the bucket itself tolerates
// duplicates, so the lookup has to happen here.
func (l *pureLeaf) insert(suffix, value []byte) (hashmap.Pos, bool) {
	if off, ok := l.b.Find(suffix); ok {
		return hashmap.Pos{Off: off}, false
	}
	return hashmap.Pos{Off: l.b.Append(suffix, value)}, true
}

func (l *pureLeaf) erase(p hashmap.Pos) hashmap.Pos {
	return hashmap.Pos{Off: l.b.Erase(p.Off)}
}

func (l *pureLeaf) check() error {
	if err := l.b.Check(); err != nil {
		return err
	}
	for off := l.b.Begin(); off != l.b.End(); off = l.b.Next(off) {
		if first, _ := l.b.Find(l.b.Key(off)); first != off {
			return fmt.Errorf("%w: duplicate key %q in pure leaf", hterrors.ErrCorruptBucket, l.b.Key(off))
		}
	}
	return nil
}

// hybridLeaf stores its records in a bucket array. n caches the record count,
// which the array itself only computes in O(bucket count).
type hybridLeaf struct {
	m *hashmap.Array
	n int
	span
}

func (*hybridLeaf) kind() nodeKind       { return kindHybrid }
func (l *hybridLeaf) count() int         { return l.n }
func (l *hybridLeaf) bytes() int         { return l.m.Bytes() }
func (l *hybridLeaf) leafSpan() span     { return l.span }
func (l *hybridLeaf) begin() hashmap.Pos { return l.m.Begin() }
func (l *hybridLeaf) next(p hashmap.Pos) hashmap.Pos {
	return l.m.Next(p)
}

func (l *hybridLeaf) valid(p hashmap.Pos) bool {
	return p.Bucket < l.m.BucketCount()
}

func (l *hybridLeaf) key(p hashmap.Pos) []byte   { return l.m.Key(p) }
func (l *hybridLeaf) value(p hashmap.Pos) []byte { return l.m.Value(p) }

func (l *hybridLeaf) find(suffix []byte) (hashmap.Pos, bool) {
	return l.m.Find(suffix)
}

func (l *hybridLeaf) insert(suffix, value []byte) (hashmap.Pos, bool) {
	p, inserted := l.m.Insert(suffix, value)
	if inserted {
		l.n++
	}
	return p, inserted
}

func (l *hybridLeaf) erase(p hashmap.Pos) hashmap.Pos {
	l.n--
	return l.m.Erase(p)
}

func (l *hybridLeaf) check() error {
	if err := l.m.Check(); err != nil {
		return err
	}
	if got := l.m.Len(); got != l.n {
		return fmt.Errorf("%w: hybrid leaf caches %d keys, buckets hold %d", hterrors.ErrCorruptTrie, l.n, got)
	}
	return nil
}

// promote rehashes every record of a pure leaf into a new bucket array. The
// pure leaf is emptied; the returned hybrid leaf has the same contents and
// span.
func promote(l *pureLeaf, bucketCount int, fn hash.Func) *hybridLeaf {
	m := hashmap.New(bucketCount, l.b.ValueSize(), fn)
	for off := l.b.Begin(); off != l.b.End(); off = l.b.Next(off) {
		if _, inserted := m.Insert(l.b.Key(off), l.b.Value(off)); !inserted {
			panic(fmt.Errorf("%w: duplicate key %q found while promoting", hterrors.ErrCorruptTrie, l.b.Key(off)))
		}
	}
	h := &hybridLeaf{m: m, n: l.b.Len(), span: l.span}
	l.b.Clear()
	return h
}

// burst redistributes every record of src by its first byte into fresh pure
// leaves under a new internal node, consuming that byte. Each child's bucket
// is built with a single allocation of its exact final size. The caller
// clears src.
func burst(src leaf, valueSize int) *internalNode {
	var (
		counts [numSlots]int
		sizes  [numSlots]int
	)
	for p := src.begin(); src.valid(p); p = src.next(p) {
		k := src.key(p)
		slot, consumed := slotFor(k, 0)
		counts[slot]++
		sizes[slot] += encoding.RecordSize(len(k)-consumed, valueSize)
	}

	var bufs [numSlots][]byte
	var fill [numSlots]int
	for slot, size := range sizes {
		if counts[slot] > 0 {
			bufs[slot] = make([]byte, size)
		}
	}
	for p := src.begin(); src.valid(p); p = src.next(p) {
		k := src.key(p)
		slot, consumed := slotFor(k, 0)
		dst := bufs[slot][fill[slot]:]
		n := encoding.EncodeKey(dst, k[consumed:])
		n += copy(dst[n:], src.value(p))
		fill[slot] += n
	}

	in := &internalNode{}
	for slot, buf := range bufs {
		if counts[slot] == 0 {
			continue
		}
		b, err := bucket.FromPacked(buf, counts[slot], valueSize)
		if err != nil {
			panic(fmt.Errorf("burst slot %d: %w", slot, err))
		}
		in.children[slot] = &pureLeaf{b: b, span: spanForSlot(slot)}
	}
	return in
}

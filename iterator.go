package hattrie

import (
	"fmt"

	"github.com/tamirms/hattrie/internal/hashmap"
)

// Iterator points at one record of a Trie, or past the end when it is not
// Valid. It remembers the internal nodes above its leaf so Next can climb
// without parent pointers.
//
// An Iterator is invalidated by any insert or erase on its Trie, except that
// Erase keeps the iterator it was given valid.
type Iterator[V any] struct {
	t      *Trie[V]
	prefix []byte  // key bytes consumed by the internal nodes on path
	path   []frame // internal nodes from the root down to lf
	lf     leaf    // nil past the end
	pos    hashmap.Pos
}

// Valid reports whether the iterator points at a record. A nil iterator is
// not valid.
func (it *Iterator[V]) Valid() bool {
	return it != nil && it.lf != nil
}

// Key returns a fresh copy of the full key at the iterator.
func (it *Iterator[V]) Key() []byte {
	it.mustValid()
	return it.appendKey(make([]byte, 0, len(it.prefix)+len(it.lf.key(it.pos))))
}

func (it *Iterator[V]) appendKey(dst []byte) []byte {
	dst = append(dst, it.prefix...)
	return append(dst, it.lf.key(it.pos)...)
}

// Value decodes the value at the iterator.
func (it *Iterator[V]) Value() V {
	it.mustValid()
	return it.t.codec.Get(it.lf.value(it.pos))
}

// SetValue overwrites the value at the iterator in place.
func (it *Iterator[V]) SetValue(v V) {
	it.mustValid()
	it.t.codec.Put(it.lf.value(it.pos), v)
}

// Next advances to the next record, or past the end. Calling Next on an
// invalid iterator does nothing.
func (it *Iterator[V]) Next() {
	if !it.Valid() {
		return
	}
	it.pos = it.lf.next(it.pos)
	if !it.lf.valid(it.pos) {
		it.advance()
	}
}

func (it *Iterator[V]) mustValid() {
	if !it.Valid() {
		panic("hattrie: use of invalid iterator")
	}
}

// advance moves to the first record of the next non-empty leaf in slot
// order, climbing the path as far as needed, or past the end.
func (it *Iterator[V]) advance() {
	for len(it.path) > 0 {
		top := len(it.path) - 1
		f := it.path[top]
		if f.slot != endSlot {
			it.prefix = it.prefix[:len(it.prefix)-1]
		}
		for s := f.slot + 1; s < numSlots; s++ {
			c := f.n.children[s]
			if c == nil {
				continue
			}
			it.path[top].slot = s
			it.prefix = append(it.prefix, byte(s-1))
			if it.first(c) {
				return
			}
			it.prefix = it.prefix[:len(it.prefix)-1]
		}
		it.path = it.path[:top]
	}
	it.lf = nil
}

// first descends to the first record under n. On failure the path and
// prefix are left as they were.
func (it *Iterator[V]) first(n node) bool {
	switch n := n.(type) {
	case *internalNode:
		it.path = append(it.path, frame{n: n})
		top := len(it.path) - 1
		for s, c := range n.children {
			if c == nil {
				continue
			}
			it.path[top].slot = s
			if s != endSlot {
				it.prefix = append(it.prefix, byte(s-1))
			}
			if it.first(c) {
				return true
			}
			if s != endSlot {
				it.prefix = it.prefix[:len(it.prefix)-1]
			}
		}
		it.path = it.path[:top]
		return false
	case leaf:
		if n.count() == 0 {
			return false
		}
		it.lf = n
		it.pos = n.begin()
		return true
	default:
		panic(fmt.Sprintf("hattrie: unexpected node %T", n))
	}
}

package hattrie

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	hterrors "github.com/tamirms/hattrie/errors"
	"github.com/tamirms/hattrie/internal/encoding"
	"github.com/tamirms/hattrie/internal/hash"
	"github.com/tamirms/hattrie/internal/hashmap"
)

// MaxKeyLen is the longest key a Trie accepts.
const MaxKeyLen = encoding.MaxKeyLen

// Trie is an ordered-by-structure map from byte-string keys of at most
// MaxKeyLen bytes to values of type V, stored inline in packed buckets.
//
// A Trie is not safe for concurrent use. Any insertion or erase invalidates
// outstanding iterators, except the one returned by Erase.
type Trie[V any] struct {
	root   node
	codec  Codec[V]
	cfg    config
	hashFn hash.Func
	log    *zap.Logger

	size    int
	scratch []byte // encoded value for the insert in progress

	promotions int
	bursts     int
}

// New creates an empty Trie whose values are encoded with codec.
func New[V any](codec Codec[V], opts ...Option) (*Trie[V], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: nil codec", hterrors.ErrInvalidCodec)
	}
	if codec.Size() < 0 {
		return nil, fmt.Errorf("%w: size %d", hterrors.ErrInvalidCodec, codec.Size())
	}
	fn, err := newHashFunc(cfg.hash)
	if err != nil {
		return nil, err
	}
	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}
	t := &Trie[V]{
		codec:   codec,
		cfg:     *cfg,
		hashFn:  fn,
		log:     log,
		scratch: make([]byte, codec.Size()),
	}
	t.root = newPureLeaf(t.valueSize(), fullSpan)
	return t, nil
}

// ValidateKey returns an error wrapping ErrKeyTooLong if key is longer than
// MaxKeyLen. Every Trie method that takes a key panics with that error
// instead, so callers accepting untrusted keys should validate first.
func ValidateKey(key []byte) error {
	return encoding.CheckKey(key)
}

func mustValidKey(key []byte) {
	if err := encoding.CheckKey(key); err != nil {
		panic(err)
	}
}

func (t *Trie[V]) valueSize() int { return len(t.scratch) }

// Len returns the number of keys.
func (t *Trie[V]) Len() int { return t.size }

// Empty reports whether the trie holds no keys.
func (t *Trie[V]) Empty() bool { return t.size == 0 }

// Clear removes every key and resets the structure counters.
func (t *Trie[V]) Clear() {
	t.root = newPureLeaf(t.valueSize(), fullSpan)
	t.size = 0
	t.promotions = 0
	t.bursts = 0
}

// frame is one internal node on the path to a leaf and the slot taken there.
type frame struct {
	n    *internalNode
	slot int
}

// locate walks key down from the root, appending every internal node passed
// to path. It returns the leaf responsible for key and the number of key
// bytes consumed. An absent slot yields a nil leaf, unless create is set,
// in which case an empty pure leaf is installed there.
func (t *Trie[V]) locate(key []byte, create bool, path []frame) (leaf, int, []frame) {
	depth := 0
	cur := t.root
	for {
		switch n := cur.(type) {
		case *internalNode:
			slot, consumed := slotFor(key, depth)
			child := n.children[slot]
			if child == nil {
				if !create {
					return nil, depth, path
				}
				child = newPureLeaf(t.valueSize(), spanForSlot(slot))
				n.children[slot] = child
			}
			path = append(path, frame{n: n, slot: slot})
			depth += consumed
			cur = child
		case leaf:
			return n, depth, path
		default:
			panic(fmt.Sprintf("hattrie: unexpected node %T", cur))
		}
	}
}

// replace installs n in parent's slot, or as the root when parent is nil.
func (t *Trie[V]) replace(parent *internalNode, slot int, n node) {
	if parent == nil {
		t.root = n
		return
	}
	parent.children[slot] = n
}

// settle restores the leaf thresholds after an insert into lf, which sits in
// parent's slot (or at the root when parent is nil). It reports whether the
// structure changed.
func (t *Trie[V]) settle(parent *internalNode, slot int, lf leaf, depth int) bool {
	changed := false
	if p, ok := lf.(*pureLeaf); ok && p.count() >= t.cfg.promoteThreshold {
		h := promote(p, t.cfg.bucketCount, t.hashFn)
		t.replace(parent, slot, h)
		t.promotions++
		t.log.Debug("promoted leaf",
			zap.Int("depth", depth),
			zap.Int("count", h.count()))
		lf, changed = h, true
	}
	h, ok := lf.(*hybridLeaf)
	if !ok || h.count() <= t.cfg.burstThreshold {
		return changed
	}

	count := h.count()
	in := burst(h, t.valueSize())
	h.m.Clear()
	h.n = 0
	t.replace(parent, slot, in)
	t.bursts++

	children := 0
	for s, c := range in.children {
		if c == nil {
			continue
		}
		children++
		t.settle(in, s, c.(leaf), depth+1)
	}
	t.log.Debug("burst leaf",
		zap.Int("depth", depth),
		zap.Int("count", count),
		zap.Int("children", children))
	return true
}

// Insert adds key with value v. If key is already present its value is left
// unchanged. It returns an iterator at key's record and whether key was
// inserted. Panics if key is longer than MaxKeyLen.
func (t *Trie[V]) Insert(key []byte, v V) (*Iterator[V], bool) {
	mustValidKey(key)
	t.codec.Put(t.scratch, v)

	lf, depth, path := t.locate(key, true, nil)
	pos, inserted := lf.insert(key[depth:], t.scratch)
	if !inserted {
		return t.iteratorAt(key[:depth], path, lf, pos), false
	}
	t.size++

	var parent *internalNode
	slot := -1
	if len(path) > 0 {
		parent, slot = path[len(path)-1].n, path[len(path)-1].slot
	}
	if t.settle(parent, slot, lf, len(path)) {
		lf, depth, path = t.locate(key, false, path[:0])
		var ok bool
		if pos, ok = lf.find(key[depth:]); !ok {
			panic(fmt.Errorf("%w: key %q lost during restructuring", hterrors.ErrCorruptTrie, key))
		}
	}
	return t.iteratorAt(key[:depth], path, lf, pos), true
}

// Set stores v under key, overwriting any existing value. It reports whether
// key was newly inserted.
func (t *Trie[V]) Set(key []byte, v V) bool {
	it, inserted := t.Insert(key, v)
	if !inserted {
		it.SetValue(v)
	}
	return inserted
}

// Find returns an iterator at key, or an invalid iterator if key is absent.
func (t *Trie[V]) Find(key []byte) *Iterator[V] {
	mustValidKey(key)
	lf, depth, path := t.locate(key, false, nil)
	if lf == nil {
		return &Iterator[V]{t: t}
	}
	pos, ok := lf.find(key[depth:])
	if !ok {
		return &Iterator[V]{t: t}
	}
	return t.iteratorAt(key[:depth], path, lf, pos)
}

// Contains reports whether key is present.
func (t *Trie[V]) Contains(key []byte) bool {
	return t.Find(key).Valid()
}

// At returns the value stored under key, or an error wrapping
// ErrKeyNotFound.
func (t *Trie[V]) At(key []byte) (V, error) {
	it := t.Find(key)
	if !it.Valid() {
		var zero V
		return zero, fmt.Errorf("%w: %q", hterrors.ErrKeyNotFound, key)
	}
	return it.Value(), nil
}

// MustAt is like At but panics if key is absent.
func (t *Trie[V]) MustAt(key []byte) V {
	v, err := t.At(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Erase removes the record it points at and advances it to the next record
// in iteration order. It returns it. Erasing through an invalid iterator is a
// no-op. Nodes are never merged or demoted.
func (t *Trie[V]) Erase(it *Iterator[V]) *Iterator[V] {
	if !it.Valid() {
		return it
	}
	it.pos = it.lf.erase(it.pos)
	t.size--
	if !it.lf.valid(it.pos) {
		it.advance()
	}
	return it
}

// Delete removes key and reports whether it was present.
func (t *Trie[V]) Delete(key []byte) bool {
	it := t.Find(key)
	if !it.Valid() {
		return false
	}
	t.Erase(it)
	return true
}

// Begin returns an iterator at the first record, or an invalid iterator if
// the trie is empty. Records are visited leaf by leaf in slot order; within
// a leaf the order is the leaf's storage order, so keys are not sorted.
func (t *Trie[V]) Begin() *Iterator[V] {
	it := &Iterator[V]{t: t}
	if !it.first(t.root) {
		it.lf = nil
	}
	return it
}

// All returns an iterator over every key and value in Begin order. The key
// slice is reused between iterations; copy it to retain it.
func (t *Trie[V]) All() iter.Seq2[[]byte, V] {
	return func(yield func([]byte, V) bool) {
		var buf []byte
		for it := t.Begin(); it.Valid(); it.Next() {
			buf = it.appendKey(buf[:0])
			if !yield(buf, it.Value()) {
				return
			}
		}
	}
}

func (t *Trie[V]) iteratorAt(prefix []byte, path []frame, lf leaf, pos hashmap.Pos) *Iterator[V] {
	return &Iterator[V]{
		t:      t,
		prefix: append([]byte(nil), prefix...),
		path:   path,
		lf:     lf,
		pos:    pos,
	}
}

// Stats describes the shape of a Trie.
type Stats struct {
	Keys          int
	InternalNodes int
	PureLeaves    int
	HybridLeaves  int
	Bytes         int // packed record bytes across all buckets
	MaxDepth      int // internal nodes on the longest root-to-leaf path
	Promotions    int
	Bursts        int
}

// Stats walks the trie and reports its shape.
func (t *Trie[V]) Stats() Stats {
	s := Stats{Keys: t.size, Promotions: t.promotions, Bursts: t.bursts}
	t.collect(t.root, 0, &s)
	return s
}

func (t *Trie[V]) collect(n node, depth int, s *Stats) {
	switch n := n.(type) {
	case *internalNode:
		s.InternalNodes++
		for _, c := range n.children {
			if c != nil {
				t.collect(c, depth+1, s)
			}
		}
		return
	case *pureLeaf:
		s.PureLeaves++
	case *hybridLeaf:
		s.HybridLeaves++
	default:
		panic(fmt.Sprintf("hattrie: unexpected node %T", n))
	}
	s.Bytes += n.(leaf).bytes()
	s.MaxDepth = max(s.MaxDepth, depth)
}

// Check verifies the structural invariants of the whole trie: every bucket
// is well formed, every leaf sits in a slot its span admits, leaf sizes
// respect the thresholds, and the key count matches Len. It returns an
// error wrapping ErrCorruptTrie or ErrCorruptBucket on the first breach.
func (t *Trie[V]) Check() error {
	if lf, ok := t.root.(leaf); ok && lf.leafSpan() != fullSpan {
		return fmt.Errorf("%w: root leaf span %+v", hterrors.ErrCorruptTrie, lf.leafSpan())
	}
	total, err := t.check(t.root, nil)
	if err != nil {
		return err
	}
	if total != t.size {
		return fmt.Errorf("%w: counted %d keys, Len is %d", hterrors.ErrCorruptTrie, total, t.size)
	}
	return nil
}

func (t *Trie[V]) check(n node, prefix []byte) (int, error) {
	switch n := n.(type) {
	case *internalNode:
		total := 0
		for slot, c := range n.children {
			if c == nil {
				continue
			}
			if lf, ok := c.(leaf); ok && !lf.leafSpan().admits(slot) {
				return 0, fmt.Errorf("%w: prefix %q slot %d holds leaf with span %+v",
					hterrors.ErrCorruptTrie, prefix, slot, lf.leafSpan())
			}
			p := prefix
			if slot != endSlot {
				p = append(prefix[:len(prefix):len(prefix)], byte(slot-1))
			} else if _, ok := c.(*internalNode); ok {
				return 0, fmt.Errorf("%w: prefix %q end slot holds an internal node", hterrors.ErrCorruptTrie, prefix)
			}
			count, err := t.check(c, p)
			if err != nil {
				return 0, err
			}
			total += count
		}
		return total, nil
	case leaf:
		if err := n.check(); err != nil {
			return 0, fmt.Errorf("leaf at prefix %q: %w", prefix, err)
		}
		if n.leafSpan().end {
			for p := n.begin(); n.valid(p); p = n.next(p) {
				if len(n.key(p)) != 0 {
					return 0, fmt.Errorf("%w: prefix %q end leaf holds suffix %q",
						hterrors.ErrCorruptTrie, prefix, n.key(p))
				}
			}
		}
		switch n := n.(type) {
		case *pureLeaf:
			if n.count() >= t.cfg.promoteThreshold {
				return 0, fmt.Errorf("%w: prefix %q pure leaf holds %d keys, promote threshold is %d",
					hterrors.ErrCorruptTrie, prefix, n.count(), t.cfg.promoteThreshold)
			}
		case *hybridLeaf:
			if n.count() > t.cfg.burstThreshold {
				return 0, fmt.Errorf("%w: prefix %q hybrid leaf holds %d keys, burst threshold is %d",
					hterrors.ErrCorruptTrie, prefix, n.count(), t.cfg.burstThreshold)
			}
		}
		return n.count(), nil
	default:
		return 0, fmt.Errorf("%w: unexpected node %T", hterrors.ErrCorruptTrie, n)
	}
}

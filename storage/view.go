package storage

import (
	"bytes"
	"fmt"

	"github.com/google/btree"

	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// KeyEncoder turns a typed logical key into its physical byte encoding.
type KeyEncoder[K any] func(K) []byte

// ValueCodec encodes/decodes a typed value.
type ValueCodec[V any] struct {
	Encode func(V) []byte
	Decode func([]byte) (V, error)
}

// View is a cheap, reusable read-only handle over one column, per
// spec.md §4.2's "read view".
type View[K, V any] struct {
	d          db.Database
	col        schema.Column
	encodeKey  KeyEncoder[K]
	valueCodec ValueCodec[V]
}

// NewView constructs a read view over col.
func NewView[K, V any](d db.Database, col schema.Column, encodeKey KeyEncoder[K], vc ValueCodec[V]) View[K, V] {
	return View[K, V]{d: d, col: col, encodeKey: encodeKey, valueCodec: vc}
}

// Get returns the decoded value for key, or ok=false if absent.
func (v View[K, V]) Get(key K) (value V, ok bool, err error) {
	raw, ok, err := v.d.Get(v.col, v.encodeKey(key))
	if err != nil || !ok {
		return value, false, err
	}
	value, err = v.valueCodec.Decode(raw)
	if err != nil {
		return value, false, &DecodeError{Column: schema.Name(v.col), Err: err}
	}
	return value, true, nil
}

// Contains reports presence using the engine's bloom-accelerated Has path
// first, falling back to Get only when that claims a possible match
// (spec.md §4.2): Contains never reports true unless Get would return ok.
func (v View[K, V]) Contains(key K) (bool, error) {
	maybe, err := v.d.Has(v.col, v.encodeKey(key))
	if err != nil || !maybe {
		return false, err
	}
	_, ok, err := v.Get(key)
	return ok, err
}

// entry is one buffered write in a write view.
type entry struct {
	key   []byte
	value []byte
}

func lessEntry(a, b entry) bool { return bytes.Compare(a.key, b.key) < 0 }

// ViewMut is a single-shot, buffered write view, per spec.md §4.2's "write
// view": Insert buffers into an in-memory ordered map, Commit drains it into
// one atomic batch and consumes the view.
type ViewMut[K, V any] struct {
	d          db.Database
	col        schema.Column
	encodeKey  KeyEncoder[K]
	valueCodec ValueCodec[V]
	buffer     *btree.BTreeG[entry]
	committed  bool
}

// NewViewMut constructs a write view over col.
func NewViewMut[K, V any](d db.Database, col schema.Column, encodeKey KeyEncoder[K], vc ValueCodec[V]) *ViewMut[K, V] {
	return &ViewMut[K, V]{
		d:          d,
		col:        col,
		encodeKey:  encodeKey,
		valueCodec: vc,
		buffer:     btree.NewG(32, lessEntry),
	}
}

// Insert buffers a write. Last write for a given key wins (btree ReplaceOrInsert).
func (v *ViewMut[K, V]) Insert(key K, value V) {
	if v.committed {
		panic(ErrViewConsumed)
	}
	v.buffer.ReplaceOrInsert(entry{key: v.encodeKey(key), value: v.valueCodec.Encode(value)})
}

// Commit drains the buffer into a single atomic write batch with WAL
// disabled (durability is provided by the periodic/shutdown flush) and
// consumes the view: calling Insert or Commit again panics.
//
// blockN is accepted for interface symmetry with history views (and to make
// call sites read uniformly across both view flavors) but is otherwise
// unused here: non-history columns have no block-tagged key component.
func (v *ViewMut[K, V]) Commit(blockN uint64) error {
	if v.committed {
		panic(ErrViewConsumed)
	}
	v.committed = true

	batch := v.d.NewBatch()
	var writeErr error
	v.buffer.Ascend(func(e entry) bool {
		if err := batch.Put(v.col, e.key, e.value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("storage: buffering write for %s: %w", schema.Name(v.col), writeErr)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("storage: committing %s: %w", schema.Name(v.col), err)
	}
	return nil
}

// Len reports the number of buffered, uncommitted writes.
func (v *ViewMut[K, V]) Len() int { return v.buffer.Len() }

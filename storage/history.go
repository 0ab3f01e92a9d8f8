package storage

import (
	"fmt"

	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// HistoryView is the read side of a history-indexed column (contract class
// hash, nonce, or storage), per spec.md §4.3.
type HistoryView[K any, V any] struct {
	d          db.Database
	col        schema.Column
	encodeKey  KeyEncoder[K]
	valueCodec ValueCodec[V]
}

// NewHistoryView constructs a history read view. encodeKey must always
// produce a value of length schema.PrefixLen(col); this is enforced on the
// write side (HistoryViewMut.InsertAt), not here, since reads never need to
// reject a caller-supplied key.
func NewHistoryView[K any, V any](d db.Database, col schema.Column, encodeKey KeyEncoder[K], vc ValueCodec[V]) HistoryView[K, V] {
	return HistoryView[K, V]{d: d, col: col, encodeKey: encodeKey, valueCodec: vc}
}

// GetAt implements spec.md §4.3's floor-lookup algorithm: seek to
// logical_key ++ (at_block+1)-BE, step to the previous key, and return its
// value if the logical-key prefix still matches, else absent.
func (v HistoryView[K, V]) GetAt(key K, atBlock uint64) (value V, ok bool, err error) {
	logical := v.encodeKey(key)
	seek := historySeekKey(logical, atBlock)

	it := v.d.NewIterator(v.col, seek)
	defer it.Close()

	it.Prev()
	if !it.Valid() {
		return value, false, nil
	}
	k := it.Key()
	if len(k) < len(logical) || string(k[:len(logical)]) != string(logical) {
		return value, false, nil
	}

	value, err = v.valueCodec.Decode(it.Value())
	if err != nil {
		return value, false, &DecodeError{Column: schema.Name(v.col), Err: err}
	}
	return value, true, nil
}

// ContainsAt reports whether a value exists for key at-or-before atBlock.
func (v HistoryView[K, V]) ContainsAt(key K, atBlock uint64) (bool, error) {
	_, ok, err := v.GetAt(key, atBlock)
	return ok, err
}

// HistoryViewMut is the write side of a history-indexed column.
type HistoryViewMut[K any, V any] struct {
	d           db.Database
	col         schema.Column
	encodeKey   KeyEncoder[K]
	valueCodec  ValueCodec[V]
	prefixLen   int
	buffer      map[string][]byte
	order       []string
	committed   bool
}

// NewHistoryViewMut constructs a history write view.
func NewHistoryViewMut[K any, V any](d db.Database, col schema.Column, encodeKey KeyEncoder[K], vc ValueCodec[V]) *HistoryViewMut[K, V] {
	return &HistoryViewMut[K, V]{
		d:          d,
		col:        col,
		encodeKey:  encodeKey,
		valueCodec: vc,
		prefixLen:  schema.PrefixLen(col),
		buffer:     make(map[string][]byte),
	}
}

// InsertAt appends (or overwrites, last-write-wins for the same
// (key, blockN) pair) an entry. Returns ErrInvalidKeyShape if the encoded
// logical key does not match the column's registered prefix-extractor
// length, per spec.md §4.3.
func (v *HistoryViewMut[K, V]) InsertAt(key K, blockN uint64, value V) error {
	if v.committed {
		panic(ErrViewConsumed)
	}
	logical := v.encodeKey(key)
	if v.prefixLen > 0 && len(logical) != v.prefixLen {
		return fmt.Errorf("%w: column %s wants prefix length %d, got %d", ErrInvalidKeyShape, schema.Name(v.col), v.prefixLen, len(logical))
	}
	physKey, err := historyKey(logical, blockN)
	if err != nil {
		return err
	}
	k := string(physKey)
	if _, exists := v.buffer[k]; !exists {
		v.order = append(v.order, k)
	}
	v.buffer[k] = v.valueCodec.Encode(value)
	return nil
}

// Commit drains the buffer into a single atomic write batch and consumes
// the view. blockN is accepted for call-site symmetry with the apply
// stage's per-block commit pattern but unused: each entry already carries
// its own block number in its physical key.
func (v *HistoryViewMut[K, V]) Commit(blockN uint64) error {
	if v.committed {
		panic(ErrViewConsumed)
	}
	v.committed = true

	batch := v.d.NewBatch()
	for _, k := range v.order {
		if err := batch.Put(v.col, []byte(k), v.buffer[k]); err != nil {
			return fmt.Errorf("storage: buffering write for %s: %w", schema.Name(v.col), err)
		}
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("storage: committing %s: %w", schema.Name(v.col), err)
	}
	return nil
}

// Len reports the number of buffered, uncommitted writes.
func (v *HistoryViewMut[K, V]) Len() int { return len(v.order) }

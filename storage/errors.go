// Package storage implements the typed, strongly-typed views over the KV
// engine: block indices, class data, history-indexed per-contract state,
// and per-block state diffs, per spec.md §4.2-§4.3.
package storage

import "errors"

// Error kinds, matching spec.md §7's tagged variants for the storage layer.
var (
	// ErrInvalidBlockNumber is returned when a u64 block number does not
	// fit the column's u32 index.
	ErrInvalidBlockNumber = errors.New("storage: block number does not fit u32 index")

	// ErrSerde wraps any encoding/decoding failure.
	ErrSerde = errors.New("storage: encode/decode failure")

	// ErrInvalidKeyShape is returned when a history-indexed write's logical
	// key does not match the column's registered prefix length.
	ErrInvalidKeyShape = errors.New("storage: logical key length does not match column prefix extractor")

	// ErrViewConsumed is returned (as a panic in practice, see view.go) when
	// a write view's Commit is invoked more than once.
	ErrViewConsumed = errors.New("storage: write view already committed")
)

// DecodeError reports that a value was present but malformed — fatal for
// that particular read, per spec.md §7 StorageDecodeError(column).
type DecodeError struct {
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	return "storage: decode error in column " + e.Column + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

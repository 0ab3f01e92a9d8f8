// Package db declares the storage-engine-facing interface that every typed
// view, trie store, and pipeline component programs against, plus the two
// concrete backends: db/rocksdb (production) and db/memdb (tests).
package db

import (
	"context"

	"github.com/sncore/node/db/schema"
)

// KeyValueReader is the minimal read surface of a single column family.
type KeyValueReader interface {
	// Get returns the value for key, or (nil, false, nil) if absent.
	Get(col schema.Column, key []byte) (value []byte, ok bool, err error)
	// Has reports presence without necessarily fetching the value. It must
	// consult the engine's "key may exist" bloom fast path first and only
	// fall back to a real Get when that path claims "maybe present" — a
	// bloom filter may false-positive but never false-negative, so Has
	// never reports false for a key Get would return.
	Has(col schema.Column, key []byte) (bool, error)
}

// KeyValueWriter is the minimal single-key write surface, used only for
// non-batched, ad-hoc scalar writes (e.g. block_storage_meta updates).
type KeyValueWriter interface {
	Put(col schema.Column, key, value []byte) error
	Delete(col schema.Column, key []byte) error
}

// Iterator walks a column family's keys in ascending or descending order
// starting from a seek position. Implementations must release any native
// resources in Close.
type Iterator interface {
	// Valid reports whether the iterator currently points at an entry.
	Valid() bool
	Key() []byte
	Value() []byte
	Next()
	Prev()
	Close()
}

// Batch accumulates writes across one or more column families for atomic
// application. A Batch is single-use: call Write at most once.
type Batch interface {
	KeyValueWriter
	// Write applies every buffered write atomically. WAL is disabled on
	// this path per spec.md §4.2: durability is provided by the periodic
	// or shutdown flush, not per-batch fsync.
	Write() error
	// ValueSize returns an approximate buffered byte count, used by callers
	// that want to cap in-memory batch growth (not required by this core,
	// kept for parity with the teacher's ethdb.Batch contract).
	ValueSize() int
	Reset()
}

// Database is the full engine contract: multi-column reads/writes, atomic
// batches, range iteration (for history "floor" lookups and trie log
// scans), flush control, and an optional backup facility.
type Database interface {
	KeyValueReader
	KeyValueWriter

	// NewBatch returns a fresh, empty atomic write batch.
	NewBatch() Batch

	// NewIterator returns an ascending iterator over col positioned at the
	// first key at or after start. The history "floor" lookup seeks past its
	// target this way and then calls Prev() to step back one entry.
	NewIterator(col schema.Column, start []byte) Iterator

	// MaybeFlush flushes every column family iff the last flush was at
	// least the engine's flush interval ago. Returns whether a flush
	// actually occurred. Safe for concurrent use.
	MaybeFlush() (bool, error)

	// RequestBackup asks the backup worker to create a new durable backup
	// and blocks (honoring ctx) until it completes. Returns ErrBackupsDisabled
	// if no backup directory was configured at Open time, or ErrBackupBusy
	// if a backup is already in flight.
	RequestBackup(ctx context.Context) error

	// Close flushes and releases the underlying engine handle. Safe to call
	// once; on-disk state remains crash-consistent even if the process is
	// killed before Close runs, since the engine's WAL provides
	// crash-consistency independent of a clean shutdown.
	Close() error
}

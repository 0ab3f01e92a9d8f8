package storage

import (
	"context"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// Backend is the single point of entry into the storage layer, analogous to
// the teacher's core state.Database and the original's DeoxysBackend: it
// owns the db.Database handle and hands out every typed view over it, so
// every other package (trie, sync, l1, mempool, node) depends on *Backend
// rather than reaching into db.Database column-by-column.
type Backend struct {
	d db.Database

	Blocks     BlockStore
	Classes    ClassStore
	Meta       MetaStore
	Nonces     HistoryView[felt.Felt, felt.Felt]
	L1Messages L1MessagingStore
}

// NewBackend wraps d with every typed view the rest of the core needs.
func NewBackend(d db.Database) *Backend {
	return &Backend{
		d:          d,
		Blocks:     NewBlockStore(d),
		Classes:    NewClassStore(d),
		Meta:       NewMetaStore(d),
		Nonces:     NewHistoryView[felt.Felt, felt.Felt](d, schema.ContractToNonces, addrKeyEncoder, feltCodec()),
		L1Messages: NewL1MessagingStore(d),
	}
}

// NewNoncesViewMut returns a fresh write view over contract nonces, staged
// under a single commit per spec.md §4.3's history-indexed write contract.
func (b *Backend) NewNoncesViewMut() *HistoryViewMut[felt.Felt, felt.Felt] {
	return NewHistoryViewMut[felt.Felt, felt.Felt](b.d, schema.ContractToNonces, addrKeyEncoder, feltCodec())
}

// NewClassHashesViewMut returns a fresh write view over contract -> class
// hash (the "which class is this contract instance running") history index,
// distinct from ClassStore's class_hash -> compiled_class_hash mapping.
func (b *Backend) NewClassHashesViewMut() *HistoryViewMut[felt.Felt, felt.Felt] {
	return NewHistoryViewMut[felt.Felt, felt.Felt](b.d, schema.ContractToClassHashes, addrKeyEncoder, feltCodec())
}

// ClassHashesView returns a read view over the contract -> class hash
// history index.
func (b *Backend) ClassHashesView() HistoryView[felt.Felt, felt.Felt] {
	return NewHistoryView[felt.Felt, felt.Felt](b.d, schema.ContractToClassHashes, addrKeyEncoder, feltCodec())
}

// ContractStorageKey is the (contract address, storage slot) compound key
// for the contract_storage history index, matching schema.StoragePrefixLen's
// 64-byte addr++slot prefix.
type ContractStorageKey struct {
	Address felt.Felt
	Slot    felt.Felt
}

func contractStorageKeyEncoder(k ContractStorageKey) []byte {
	out := make([]byte, 0, 2*felt.Len)
	out = append(out, EncodeFelt(k.Address)...)
	out = append(out, EncodeFelt(k.Slot)...)
	return out
}

// ContractStorageView returns a read view over a contract's historical
// storage slots.
func (b *Backend) ContractStorageView() HistoryView[ContractStorageKey, felt.Felt] {
	return NewHistoryView[ContractStorageKey, felt.Felt](b.d, schema.ContractStorage, contractStorageKeyEncoder, feltCodec())
}

// NewContractStorageViewMut returns a fresh write view over contract storage.
func (b *Backend) NewContractStorageViewMut() *HistoryViewMut[ContractStorageKey, felt.Felt] {
	return NewHistoryViewMut[ContractStorageKey, felt.Felt](b.d, schema.ContractStorage, contractStorageKeyEncoder, feltCodec())
}

func addrKeyEncoder(addr felt.Felt) []byte { return EncodeFelt(addr) }

func feltCodec() ValueCodec[felt.Felt] {
	return ValueCodec[felt.Felt]{Encode: EncodeFelt, Decode: DecodeFelt}
}

// Raw returns the underlying db.Database handle, for packages (trie.Store,
// the sync pipeline) that need to open additional column-family-scoped
// stores over the same engine instance rather than go through Backend's
// typed views.
func (b *Backend) Raw() db.Database {
	return b.d
}

// NewBatch returns a fresh atomic write batch over the underlying database,
// used by the sync pipeline's apply stage to fold block, state-diff, and
// trie writes into a single atomic commit.
func (b *Backend) NewBatch() db.Batch {
	return b.d.NewBatch()
}

// MaybeFlush passes through to the underlying database's periodic flush.
func (b *Backend) MaybeFlush() (bool, error) {
	return b.d.MaybeFlush()
}

// RequestBackup passes through to the underlying database's backup worker.
func (b *Backend) RequestBackup(ctx context.Context) error {
	return b.d.RequestBackup(ctx)
}

// Close flushes and releases the underlying database handle.
func (b *Backend) Close() error {
	return b.d.Close()
}

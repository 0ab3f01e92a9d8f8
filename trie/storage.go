package trie

import (
	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// storageTrieCacheSize matches contractTrieCacheSize; the contract-storage
// trie is read/written with the same per-block hot-set size as the contract
// trie, just partitioned across many per-contract ids.
const storageTrieCacheSize = 4096

// NewContractStorageTrieStore constructs the Store backing the
// contract-storage trie family: one logical trie per contract address,
// storage_key -> value, sharing the bonsai_contracts_storage_* columns and
// namespaced by contract address via Store's id parameter.
func NewContractStorageTrieStore(d db.Database) (*Store, error) {
	return NewStore(d, schema.BonsaiContractsStorageTrie, schema.BonsaiContractsStorageFlat, schema.BonsaiContractsStorageLog, storageTrieCacheSize)
}

// NewContractStorageTrie constructs the per-contract storage trie for
// contractAddr over store, wired to the Pedersen stand-in per spec.md §4.4.
func NewContractStorageTrie(store *Store, contractAddr felt.Felt) *Trie {
	return New(store, Pedersen, contractAddr)
}

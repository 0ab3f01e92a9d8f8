package trie

import (
	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// contractTrieCacheSize follows go-ethereum's convention of a few thousand
// entries for a hot trie-node cache (see core/state's trie node cache
// sizing), generous enough to keep a full block's worth of touched nodes
// warm across the Verify/Apply stages of one sync iteration.
const contractTrieCacheSize = 4096

// NewContractTrieStore constructs the Store backing the single, global
// contract trie: contract_address -> h(class_hash, storage_root, nonce, 0).
func NewContractTrieStore(d db.Database) (*Store, error) {
	return NewStore(d, schema.BonsaiContractsTrie, schema.BonsaiContractsFlat, schema.BonsaiContractsLog, contractTrieCacheSize)
}

// NewContractTrie constructs the singleton contract trie (id = felt.Zero)
// over store, wired to the Pedersen stand-in per spec.md §4.4.
func NewContractTrie(store *Store) *Trie {
	return New(store, Pedersen, felt.Zero)
}

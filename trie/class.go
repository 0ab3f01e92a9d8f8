package trie

import (
	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// classTrieCacheSize matches contractTrieCacheSize; classes are declared far
// less often than contract/storage writes, but the cache is sized the same
// for simplicity.
const classTrieCacheSize = 4096

// NewClassTrieStore constructs the Store backing the single, global class
// trie: class_hash -> compiled_class_hash.
func NewClassTrieStore(d db.Database) (*Store, error) {
	return NewStore(d, schema.BonsaiClassesTrie, schema.BonsaiClassesFlat, schema.BonsaiClassesLog, classTrieCacheSize)
}

// NewClassTrie constructs the singleton class trie (id = felt.Zero) over
// store, wired to the Poseidon stand-in per spec.md §4.4.
func NewClassTrie(store *Store) *Trie {
	return New(store, Poseidon, felt.Zero)
}

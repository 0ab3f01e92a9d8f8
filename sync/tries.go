package sync

import (
	"fmt"

	"github.com/sncore/node/db"
	"github.com/sncore/node/trie"
)

// tries bundles the three persistent trie stores the commit stage writes
// through: the singleton contract trie, the per-contract-address storage
// trie family (sharing one Store, namespaced by id), and the singleton
// class trie.
type tries struct {
	contractStore *trie.Store
	storageStore  *trie.Store
	classStore    *trie.Store
}

func newTries(d db.Database) (*tries, error) {
	contractStore, err := trie.NewContractTrieStore(d)
	if err != nil {
		return nil, fmt.Errorf("sync: opening contract trie store: %w", err)
	}
	storageStore, err := trie.NewContractStorageTrieStore(d)
	if err != nil {
		return nil, fmt.Errorf("sync: opening contract-storage trie store: %w", err)
	}
	classStore, err := trie.NewClassTrieStore(d)
	if err != nil {
		return nil, fmt.Errorf("sync: opening class trie store: %w", err)
	}
	return &tries{contractStore: contractStore, storageStore: storageStore, classStore: classStore}, nil
}

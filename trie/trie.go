package trie

import (
	"fmt"
	"sort"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
)

// Trie is one versioned sparse Merkle-Patricia trie instance: Set stages a
// leaf update, Get reads the effective value (staged or committed), Commit
// persists every staged update under versionID and returns the new root
// hash, per spec.md §4.4. id distinguishes this trie's root and leaves
// within a shared Store — felt.Zero for the singleton contract and class
// tries, the contract address for a per-contract storage trie.
type Trie struct {
	store   *Store
	hashFn  HashFn
	id      felt.Felt
	pending map[felt.Felt]felt.Felt
	root    felt.Felt
	loaded  bool
}

// New constructs a Trie with identity id over store using hashFn as its
// hash identity.
func New(store *Store, hashFn HashFn, id felt.Felt) *Trie {
	return &Trie{store: store, hashFn: hashFn, id: id, pending: make(map[felt.Felt]felt.Felt)}
}

func (t *Trie) ensureRootLoaded() error {
	if t.loaded {
		return nil
	}
	root, err := t.store.RootHash(t.id)
	if err != nil {
		return err
	}
	t.root = root
	t.loaded = true
	return nil
}

// Set stages a leaf update at key. The write is not visible to other Trie
// instances over the same store until Commit.
func (t *Trie) Set(key felt.Felt, value felt.Felt) {
	t.pending[key] = value
}

// Get reads the effective value for key, including staged-but-uncommitted
// updates, falling back to the committed flat column.
func (t *Trie) Get(key felt.Felt) (felt.Felt, bool, error) {
	if v, ok := t.pending[key]; ok {
		return v, true, nil
	}
	return t.store.GetLeaf(t.id, key)
}

// RootHash returns the currently committed root hash (felt.Zero for an
// empty trie). It does not reflect staged-but-uncommitted Set calls.
func (t *Trie) RootHash() (felt.Felt, error) {
	if err := t.ensureRootLoaded(); err != nil {
		return felt.Felt{}, err
	}
	return t.root, nil
}

// Commit persists every staged update into batch under versionID and returns
// the new root hash. It does not call batch.Write(): the caller decides when
// the batch is written (the sync pipeline's apply stage writes each trie's
// batch on its own, before the block-index batch). Commit clears the staged set whether or not the caller ever
// writes the batch; a failed Write() requires discarding the whole Trie
// instance, matching the single-shot contract used by storage's ViewMut.
func (t *Trie) Commit(batch db.Batch, versionID uint64) (felt.Felt, error) {
	if err := t.ensureRootLoaded(); err != nil {
		return felt.Felt{}, err
	}
	if len(t.pending) == 0 {
		return t.root, nil
	}

	keys := make([]felt.Felt, 0, len(t.pending))
	for k := range t.pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Cmp(keys[j]) < 0 })

	touched := make([]felt.Felt, 0, len(keys))
	root := t.root
	for _, k := range keys {
		v := t.pending[k]
		newRoot, err := t.insertNode(batch, root, Height, KeyBits(k), v)
		if err != nil {
			return felt.Felt{}, fmt.Errorf("trie: inserting key %s: %w", k, err)
		}
		root = newRoot
		if err := t.store.stageLeaf(batch, t.id, k, v); err != nil {
			return felt.Felt{}, fmt.Errorf("trie: staging leaf %s: %w", k, err)
		}
		touched = append(touched, k)
	}

	if err := t.store.stageRootHash(batch, t.id, root); err != nil {
		return felt.Felt{}, err
	}
	if err := t.store.writeLog(batch, t.id, versionID, touched); err != nil {
		return felt.Felt{}, err
	}

	t.root = root
	t.pending = make(map[felt.Felt]felt.Felt)
	return root, nil
}

// insertNode is the recursive Merkle-Patricia insert described in
// SPEC_FULL.md §4.4: descend from cur (a node hash, or felt.Zero for an
// empty subtree) consuming bits (always len(bits) == height), staging every
// newly-created node, and returning the new subtree hash.
func (t *Trie) insertNode(batch db.Batch, cur felt.Felt, height int, bits []bool, value felt.Felt) (felt.Felt, error) {
	if height == 0 {
		return value, nil
	}

	if cur.IsZero() {
		n := edgeNode(bits[:height], value)
		h := n.hash(t.hashFn)
		if err := t.store.stageNode(batch, h, n); err != nil {
			return felt.Felt{}, err
		}
		return h, nil
	}

	n, ok, err := t.store.GetNode(cur)
	if err != nil {
		return felt.Felt{}, err
	}
	if !ok {
		return felt.Felt{}, fmt.Errorf("trie: missing node for hash %s", cur)
	}

	switch n.Kind {
	case kindBinary:
		return t.insertBinary(batch, n, height, bits, value)
	case kindEdge:
		return t.insertEdge(batch, n, height, bits, value)
	default:
		return felt.Felt{}, fmt.Errorf("trie: unknown node kind")
	}
}

func (t *Trie) insertBinary(batch db.Batch, n node, height int, bits []bool, value felt.Felt) (felt.Felt, error) {
	left, right := n.Left, n.Right
	var err error
	if bits[0] {
		right, err = t.insertNode(batch, n.Right, height-1, bits[1:], value)
	} else {
		left, err = t.insertNode(batch, n.Left, height-1, bits[1:], value)
	}
	if err != nil {
		return felt.Felt{}, err
	}
	newNode := binaryNode(left, right)
	h := newNode.hash(t.hashFn)
	if err := t.store.stageNode(batch, h, newNode); err != nil {
		return felt.Felt{}, err
	}
	return h, nil
}

func (t *Trie) insertEdge(batch db.Batch, n node, height int, bits []bool, value felt.Felt) (felt.Felt, error) {
	cpl := commonPrefixLen(bits[:n.Length], n.Path)

	if cpl == n.Length {
		tailBits := bits[n.Length:height]
		newChild, err := t.insertNode(batch, n.Child, height-n.Length, tailBits, value)
		if err != nil {
			return felt.Felt{}, err
		}
		newNode := edgeNode(n.Path, newChild)
		h := newNode.hash(t.hashFn)
		if err := t.store.stageNode(batch, h, newNode); err != nil {
			return felt.Felt{}, err
		}
		return h, nil
	}

	divergingOld := n.Path[cpl]
	oldRemain := n.Path[cpl+1:]
	var oldBranchHash felt.Felt
	if len(oldRemain) == 0 {
		oldBranchHash = n.Child
	} else {
		oldEdge := edgeNode(oldRemain, n.Child)
		oldBranchHash = oldEdge.hash(t.hashFn)
		if err := t.store.stageNode(batch, oldBranchHash, oldEdge); err != nil {
			return felt.Felt{}, err
		}
	}

	tailBits := bits[n.Length:height]
	tailHash, err := t.insertNode(batch, felt.Zero, height-n.Length, tailBits, value)
	if err != nil {
		return felt.Felt{}, err
	}
	newRemain := bits[cpl+1 : n.Length]
	newBranchHash := tailHash
	if len(newRemain) != 0 {
		newEdge := edgeNode(newRemain, tailHash)
		newBranchHash = newEdge.hash(t.hashFn)
		if err := t.store.stageNode(batch, newBranchHash, newEdge); err != nil {
			return felt.Felt{}, err
		}
	}

	var left, right felt.Felt
	if divergingOld {
		left, right = newBranchHash, oldBranchHash
	} else {
		left, right = oldBranchHash, newBranchHash
	}
	binNode := binaryNode(left, right)
	binHash := binNode.hash(t.hashFn)
	if err := t.store.stageNode(batch, binHash, binNode); err != nil {
		return felt.Felt{}, err
	}
	if cpl == 0 {
		return binHash, nil
	}

	prefixEdge := edgeNode(n.Path[:cpl], binHash)
	h := prefixEdge.hash(t.hashFn)
	if err := t.store.stageNode(batch, h, prefixEdge); err != nil {
		return felt.Felt{}, err
	}
	return h, nil
}

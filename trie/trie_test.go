package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
	"github.com/sncore/node/db/schema"
)

func newTestTrie(t *testing.T) (*Store, *Trie) {
	t.Helper()
	store, err := NewStore(memdb.New(), schema.BonsaiContractsTrie, schema.BonsaiContractsFlat, schema.BonsaiContractsLog, 64)
	require.NoError(t, err)
	return store, New(store, Pedersen, felt.Zero)
}

func TestTrieEmptyRootIsZero(t *testing.T) {
	_, tr := newTestTrie(t)
	root, err := tr.RootHash()
	require.NoError(t, err)
	require.True(t, root.IsZero())
}

func TestTrieSetGetCommitRoundTrip(t *testing.T) {
	d := memdb.New()
	store, err := NewStore(d, schema.BonsaiContractsTrie, schema.BonsaiContractsFlat, schema.BonsaiContractsLog, 64)
	require.NoError(t, err)
	tr := New(store, Pedersen, felt.Zero)

	k := felt.FromUint64(5)
	v := felt.FromUint64(100)
	tr.Set(k, v)

	got, ok, err := tr.Get(k)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(v))

	batch := d.NewBatch()
	root, err := tr.Commit(batch, 0)
	require.NoError(t, err)
	require.NoError(t, batch.Write())
	require.False(t, root.IsZero())

	got, ok, err = tr.Get(k)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(v))
}

func TestTrieRootHashDeterministicAcrossInsertOrder(t *testing.T) {
	keys := []felt.Felt{felt.FromUint64(1), felt.FromUint64(2), felt.FromUint64(0x1000), felt.FromUint64(0xDEADBEEF)}
	values := []felt.Felt{felt.FromUint64(10), felt.FromUint64(20), felt.FromUint64(30), felt.FromUint64(40)}

	root1 := commitAll(t, keys, values)

	revKeys := make([]felt.Felt, len(keys))
	revValues := make([]felt.Felt, len(values))
	for i := range keys {
		revKeys[i] = keys[len(keys)-1-i]
		revValues[i] = values[len(values)-1-i]
	}
	root2 := commitAll(t, revKeys, revValues)

	require.True(t, root1.Equal(root2))
}

func commitAll(t *testing.T, keys, values []felt.Felt) felt.Felt {
	t.Helper()
	d := memdb.New()
	store, err := NewStore(d, schema.BonsaiContractsTrie, schema.BonsaiContractsFlat, schema.BonsaiContractsLog, 64)
	require.NoError(t, err)
	tr := New(store, Pedersen, felt.Zero)
	for i, k := range keys {
		tr.Set(k, values[i])
	}
	batch := d.NewBatch()
	root, err := tr.Commit(batch, 1)
	require.NoError(t, err)
	require.NoError(t, batch.Write())
	return root
}

// TestTrieIndependentReapplicationYieldsSameRoot implements spec.md §8's
// invariant: committing the same state-diff onto two independently
// constructed tries starting from an identical prior state yields the same
// root hash.
func TestTrieIndependentReapplicationYieldsSameRoot(t *testing.T) {
	priorKeys := []felt.Felt{felt.FromUint64(1), felt.FromUint64(7), felt.FromUint64(99)}
	priorValues := []felt.Felt{felt.FromUint64(11), felt.FromUint64(77), felt.FromUint64(999)}

	buildPrior := func() (*memdb.Database, *Store, *Trie, felt.Felt) {
		d := memdb.New()
		store, err := NewStore(d, schema.BonsaiContractsTrie, schema.BonsaiContractsFlat, schema.BonsaiContractsLog, 64)
		require.NoError(t, err)
		tr := New(store, Pedersen, felt.Zero)
		for i, k := range priorKeys {
			tr.Set(k, priorValues[i])
		}
		batch := d.NewBatch()
		root, err := tr.Commit(batch, 0)
		require.NoError(t, err)
		require.NoError(t, batch.Write())
		return d, store, tr, root
	}

	dA, storeA, trA, priorRootA := buildPrior()
	dB, storeB, trB, priorRootB := buildPrior()
	require.True(t, priorRootA.Equal(priorRootB))

	diffKeys := []felt.Felt{felt.FromUint64(1), felt.FromUint64(42)}
	diffValues := []felt.Felt{felt.FromUint64(12345), felt.FromUint64(54321)}

	trA.Set(diffKeys[0], diffValues[0])
	trA.Set(diffKeys[1], diffValues[1])
	batchA := dA.NewBatch()
	rootA, err := trA.Commit(batchA, 1)
	require.NoError(t, err)
	require.NoError(t, batchA.Write())

	trB2 := New(storeB, Pedersen, felt.Zero)
	trB2.Set(diffKeys[1], diffValues[1])
	trB2.Set(diffKeys[0], diffValues[0])
	batchB := dB.NewBatch()
	rootB, err := trB2.Commit(batchB, 1)
	require.NoError(t, err)
	require.NoError(t, batchB.Write())

	require.True(t, rootA.Equal(rootB))
	_ = storeA
	_ = trB
}

func TestTrieDistinctContractStorageIDsDoNotCollide(t *testing.T) {
	d := memdb.New()
	store, err := NewContractStorageTrieStore(d)
	require.NoError(t, err)

	contractA := felt.FromUint64(1)
	contractB := felt.FromUint64(2)

	trA := NewContractStorageTrie(store, contractA)
	trB := NewContractStorageTrie(store, contractB)

	slot := felt.FromUint64(5)
	trA.Set(slot, felt.FromUint64(111))
	trB.Set(slot, felt.FromUint64(222))

	batch := d.NewBatch()
	rootA, err := trA.Commit(batch, 0)
	require.NoError(t, err)
	rootB, err := trB.Commit(batch, 0)
	require.NoError(t, err)
	require.NoError(t, batch.Write())

	require.False(t, rootA.Equal(rootB))

	vA, ok, err := NewContractStorageTrie(store, contractA).Get(slot)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, vA.Equal(felt.FromUint64(111)))

	vB, ok, err := NewContractStorageTrie(store, contractB).Get(slot)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, vB.Equal(felt.FromUint64(222)))
}

func TestContractCommitmentDeterministic(t *testing.T) {
	classHash := felt.FromUint64(1)
	storageRoot := felt.FromUint64(2)
	nonce := felt.FromUint64(3)

	c1 := ContractCommitment(Pedersen, classHash, storageRoot, nonce)
	c2 := ContractCommitment(Pedersen, classHash, storageRoot, nonce)
	require.True(t, c1.Equal(c2))

	c3 := ContractCommitment(Pedersen, classHash, storageRoot, felt.FromUint64(4))
	require.False(t, c1.Equal(c3))
}

package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
	"github.com/sncore/node/db/schema"
)

func TestStoreRootHashDefaultsToZero(t *testing.T) {
	store, err := NewStore(memdb.New(), schema.BonsaiClassesTrie, schema.BonsaiClassesFlat, schema.BonsaiClassesLog, 8)
	require.NoError(t, err)

	root, err := store.RootHash(felt.Zero)
	require.NoError(t, err)
	require.True(t, root.IsZero())
}

func TestStoreLeafAndNodeRoundTrip(t *testing.T) {
	d := memdb.New()
	store, err := NewStore(d, schema.BonsaiClassesTrie, schema.BonsaiClassesFlat, schema.BonsaiClassesLog, 8)
	require.NoError(t, err)

	n := binaryNode(felt.FromUint64(1), felt.FromUint64(2))
	h := n.hash(Poseidon)
	batch := d.NewBatch()
	require.NoError(t, store.stageNode(batch, h, n))
	require.NoError(t, store.stageLeaf(batch, felt.Zero, felt.FromUint64(9), felt.FromUint64(99)))
	require.NoError(t, batch.Write())

	got, ok, err := store.GetNode(h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, kindBinary, got.Kind)

	v, ok, err := store.GetLeaf(felt.Zero, felt.FromUint64(9))
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, v.Equal(felt.FromUint64(99)))
}

func TestNodeEncodeDecodeEdge(t *testing.T) {
	n := edgeNode([]bool{true, false, true, true, false}, felt.FromUint64(77))
	raw := encodeNode(n)
	decoded, err := decodeNode(raw)
	require.NoError(t, err)
	require.Equal(t, kindEdge, decoded.Kind)
	require.Equal(t, n.Path, decoded.Path)
	require.True(t, decoded.Child.Equal(n.Child))
}

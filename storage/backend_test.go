package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
)

func TestBackendWiresNonceHistory(t *testing.T) {
	d := memdb.New()
	b := NewBackend(d)

	addr := felt.FromUint64(42)
	mut := b.NewNoncesViewMut()
	require.NoError(t, mut.InsertAt(addr, 10, felt.FromUint64(1)))
	require.NoError(t, mut.Commit(0))

	v, ok, err := b.Nonces.GetAt(addr, 15)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, v.Equal(felt.FromUint64(1)))
}

func TestBackendContractStorageHistory(t *testing.T) {
	d := memdb.New()
	b := NewBackend(d)

	key := ContractStorageKey{Address: felt.FromUint64(1), Slot: felt.FromUint64(2)}
	mut := b.NewContractStorageViewMut()
	require.NoError(t, mut.InsertAt(key, 3, felt.FromUint64(77)))
	require.NoError(t, mut.Commit(0))

	view := b.ContractStorageView()
	v, ok, err := view.GetAt(key, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, v.Equal(felt.FromUint64(77)))
}

func TestBackendBlockAndClassViewsWired(t *testing.T) {
	d := memdb.New()
	b := NewBackend(d)

	info, inner, diff := sampleBlock(1)
	batch := b.NewBatch()
	require.NoError(t, b.Blocks.StageBlock(batch, info, inner, diff))
	require.NoError(t, batch.Write())

	_, ok, err := b.Blocks.GetBlockInfo(1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Meta.SetChainID("SN_GOERLI"))
	id, ok, err := b.Meta.ChainID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SN_GOERLI", id)
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/db/memdb"
)

func TestMetaChainID(t *testing.T) {
	d := memdb.New()
	m := NewMetaStore(d)

	_, ok, err := m.ChainID()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.SetChainID("SN_MAIN"))
	id, ok, err := m.ChainID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SN_MAIN", id)
}

func TestMetaSyncTip(t *testing.T) {
	d := memdb.New()
	m := NewMetaStore(d)

	batch := d.NewBatch()
	require.NoError(t, m.StageSyncTip(batch, 123))
	require.NoError(t, batch.Write())

	n, ok, err := m.SyncTip()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(123), n)
}

func TestMetaPendingBlockLifecycle(t *testing.T) {
	d := memdb.New()
	m := NewMetaStore(d)

	info, inner, _ := sampleBlock(99)
	require.NoError(t, m.SetPendingBlock(info, inner))

	gotInfo, gotInner, ok, err := m.PendingBlock()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, gotInfo.BlockHash.Equal(info.BlockHash))
	require.Equal(t, len(inner.Transactions), len(gotInner.Transactions))

	require.NoError(t, m.ClearPendingBlock())
	_, _, ok, err = m.PendingBlock()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMetaL1LastConfirmed(t *testing.T) {
	d := memdb.New()
	m := NewMetaStore(d)

	_, ok, err := m.L1LastConfirmedBlockN()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.SetL1LastConfirmedBlockN(500001))
	n, ok, err := m.L1LastConfirmedBlockN()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(500001), n)
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
)

func sampleBlock(n uint64) (BlockInfo, BlockInner, StateDiff) {
	tx := felt.FromUint64(100 + n)
	info := BlockInfo{
		BlockNumber:      n,
		BlockHash:        felt.FromUint64(1000 + n),
		ParentHash:       felt.FromUint64(999 + n),
		SequencerAddress: felt.FromUint64(1),
		Timestamp:        1700000000 + n,
		ProtocolVersion:  "0.13.0",
		GlobalStateRoot:  felt.FromUint64(5000 + n),
		TxHashes:         []felt.Felt{tx},
		TxCount:          1,
	}
	inner := BlockInner{
		Transactions: []Transaction{{Hash: tx, Raw: []byte("tx-payload")}},
		Receipts:     []Receipt{{Raw: []byte("receipt-payload")}},
	}
	diff := NewStateDiff(n)
	return info, inner, *diff
}

func TestStageBlockRoundTrip(t *testing.T) {
	d := memdb.New()
	bs := NewBlockStore(d)

	info, inner, diff := sampleBlock(7)
	batch := d.NewBatch()
	require.NoError(t, bs.StageBlock(batch, info, inner, diff))
	require.NoError(t, batch.Write())

	gotInfo, ok, err := bs.GetBlockInfo(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, gotInfo.BlockHash.Equal(info.BlockHash))
	require.Equal(t, info.ProtocolVersion, gotInfo.ProtocolVersion)

	gotInner, ok, err := bs.GetBlockInner(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tx-payload", string(gotInner.Transactions[0].Raw))

	gotDiff, ok, err := bs.GetStateDiff(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), gotDiff.BlockNumber)

	n, ok, err := bs.GetBlockNByHash(info.BlockHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), n)

	loc, ok, err := bs.GetTxLocation(info.TxHashes[0])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), loc.BlockNumber)
	require.Equal(t, uint32(0), loc.TxIndex)
}

func TestGetBlockInfoMissing(t *testing.T) {
	d := memdb.New()
	bs := NewBlockStore(d)
	_, ok, err := bs.GetBlockInfo(42)
	require.NoError(t, err)
	require.False(t, ok)
}

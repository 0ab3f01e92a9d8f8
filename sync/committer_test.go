package sync

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
	"github.com/sncore/node/storage"
)

func newTestCommitter(t *testing.T) (*committer, *storage.Backend) {
	t.Helper()
	d := memdb.New()
	backend := storage.NewBackend(d)
	tr, err := newTries(d)
	require.NoError(t, err)
	return newCommitter(backend, tr), backend
}

func genesisBlock() *fetchedBlock {
	addr := felt.FromUint64(1)
	classHash := felt.FromUint64(2)
	compiledHash := felt.FromUint64(3)
	diff := storage.NewStateDiff(0)
	diff.DeployedContracts[addr] = classHash
	diff.Nonces[addr] = felt.FromUint64(0)
	diff.StorageDiffs[addr] = []storage.StorageDiffEntry{{Key: felt.FromUint64(5), Value: felt.FromUint64(50)}}
	diff.DeclaredClasses[classHash] = compiledHash

	return &fetchedBlock{
		blockN: 0,
		info:   storage.BlockInfo{BlockNumber: 0, BlockHash: felt.FromUint64(777)},
		inner:  storage.BlockInner{},
		diff:   *diff,
		declaredABI: map[felt.Felt][]byte{
			classHash: []byte(`{"sierra":true}`),
		},
	}
}

func TestCommitOneColdStartGenesis(t *testing.T) {
	c, backend := newTestCommitter(t)
	fb := genesisBlock()

	require.NoError(t, c.commitOne(fb))

	tip, ok, err := backend.Meta.SyncTip()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0), tip)

	info, ok, err := backend.Blocks.GetBlockInfo(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0), info.BlockNumber)

	class, ok, err := backend.Classes.GetClass(felt.FromUint64(2))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{"sierra":true}`), class.Raw)

	nonce, ok, err := backend.Nonces.GetAt(felt.FromUint64(1), 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, nonce.Equal(felt.Zero))
}

func TestCommitOneRejectsNonSequentialBlock(t *testing.T) {
	c, _ := newTestCommitter(t)
	fb := genesisBlock()
	require.NoError(t, c.commitOne(fb))

	gap := genesisBlock()
	gap.blockN = 2
	gap.info.BlockNumber = 2
	err := c.commitOne(gap)
	require.ErrorIs(t, err, ErrNonSequentialBlock)
}

func TestCommitOneAppliesSecondBlockOnTopOfFirst(t *testing.T) {
	c, backend := newTestCommitter(t)
	require.NoError(t, c.commitOne(genesisBlock()))

	addr := felt.FromUint64(1)
	diff := storage.NewStateDiff(1)
	diff.Nonces[addr] = felt.FromUint64(1)
	diff.StorageDiffs[addr] = []storage.StorageDiffEntry{{Key: felt.FromUint64(5), Value: felt.FromUint64(999)}}

	second := &fetchedBlock{
		blockN: 1,
		info:   storage.BlockInfo{BlockNumber: 1, BlockHash: felt.FromUint64(778), ParentHash: felt.FromUint64(777)},
		inner:  storage.BlockInner{},
		diff:   *diff,
	}
	require.NoError(t, c.commitOne(second))

	tip, ok, err := backend.Meta.SyncTip()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), tip)

	nonce, ok, err := backend.Nonces.GetAt(addr, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, nonce.Equal(felt.FromUint64(1)))
}

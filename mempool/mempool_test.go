package mempool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
	"github.com/sncore/node/node"
	"github.com/sncore/node/storage"
)

func commitGenesis(t *testing.T, backend *storage.Backend) {
	t.Helper()
	batch := backend.NewBatch()
	require.NoError(t, backend.Blocks.StageBlock(batch, storage.BlockInfo{
		BlockNumber: 0,
		BlockHash:   felt.FromUint64(1),
	}, storage.BlockInner{}, *storage.NewStateDiff(0)))
	require.NoError(t, backend.Meta.StageSyncTip(batch, 0))
	require.NoError(t, batch.Write())
}

func TestMempoolAcceptAccountTxRequiresGenesis(t *testing.T) {
	backend := storage.NewBackend(memdb.New())
	mp := New(backend, node.Config{}, StaticL1DataProvider{}, nil)

	err := mp.AcceptAccountTx(context.Background(), AccountTransaction{
		SenderAddress: felt.FromUint64(1),
		Nonce:         felt.FromUint64(0),
		Kind:          TxInvoke,
	})
	require.ErrorIs(t, err, ErrNoGenesis)
}

func TestMempoolAcceptAccountTxDedupByNonce(t *testing.T) {
	backend := storage.NewBackend(memdb.New())
	commitGenesis(t, backend)
	mp := New(backend, node.Config{}, StaticL1DataProvider{}, nil)

	sender := felt.FromUint64(9)
	mkTx := func(nonce uint64) AccountTransaction {
		return AccountTransaction{SenderAddress: sender, Nonce: felt.FromUint64(nonce), Kind: TxInvoke}
	}

	require.NoError(t, mp.AcceptAccountTx(context.Background(), mkTx(7)))
	err := mp.AcceptAccountTx(context.Background(), mkTx(7))
	require.ErrorIs(t, err, ErrDuplicateNonce)
	require.NoError(t, mp.AcceptAccountTx(context.Background(), mkTx(8)))

	var dest []MempoolTransaction
	mp.TakeTxsChunk(&dest, 10)
	require.Len(t, dest, 2)
	require.True(t, dest[0].Tx.Nonce.Equal(felt.FromUint64(7)))
	require.True(t, dest[1].Tx.Nonce.Equal(felt.FromUint64(8)))
}

func TestMempoolAcceptAccountTxSkipsQueryOnly(t *testing.T) {
	backend := storage.NewBackend(memdb.New())
	commitGenesis(t, backend)
	mp := New(backend, node.Config{}, StaticL1DataProvider{}, nil)

	require.NoError(t, mp.AcceptAccountTx(context.Background(), AccountTransaction{
		SenderAddress: felt.FromUint64(1),
		Nonce:         felt.FromUint64(0),
		Kind:          TxInvoke,
		OnlyQuery:     true,
	}))

	_, ok := mp.TakeTx()
	require.False(t, ok)
}

type rejectingValidator struct{ errMsg string }

func (v rejectingValidator) Validate(context.Context, AccountTransaction, PendingBlockInfo, bool) error {
	return errors.New(v.errMsg)
}

func TestMempoolAcceptAccountTxSurfacesValidationRejection(t *testing.T) {
	backend := storage.NewBackend(memdb.New())
	commitGenesis(t, backend)
	mp := New(backend, node.Config{}, StaticL1DataProvider{}, rejectingValidator{errMsg: "insufficient balance"})

	err := mp.AcceptAccountTx(context.Background(), AccountTransaction{
		SenderAddress: felt.FromUint64(1),
		Nonce:         felt.FromUint64(0),
		Kind:          TxInvoke,
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	_, ok := mp.TakeTx()
	require.False(t, ok)
}

func TestMempoolAcceptAccountTxSkipsDeployPreconditionForSameSender(t *testing.T) {
	backend := storage.NewBackend(memdb.New())
	commitGenesis(t, backend)

	sender := felt.FromUint64(42)
	seen := make(chan bool, 2)
	probe := probeValidator{seen: seen}
	mp := New(backend, node.Config{}, StaticL1DataProvider{}, probe)

	require.NoError(t, mp.AcceptAccountTx(context.Background(), AccountTransaction{
		SenderAddress: sender, Nonce: felt.FromUint64(0), Kind: TxDeployAccount,
	}))
	require.NoError(t, mp.AcceptAccountTx(context.Background(), AccountTransaction{
		SenderAddress: sender, Nonce: felt.FromUint64(1), Kind: TxInvoke,
	}))

	require.False(t, <-seen) // deploy-account: not skipped (no prior deploy queued)
	require.True(t, <-seen)  // invoke from the same sender: deploy precondition skipped
}

type probeValidator struct{ seen chan bool }

func (p probeValidator) Validate(_ context.Context, _ AccountTransaction, _ PendingBlockInfo, skipDeployPrecondition bool) error {
	p.seen <- skipDeployPrecondition
	return nil
}

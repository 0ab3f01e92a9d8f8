package mempool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
)

func tx(sender uint64, nonce uint64, kind TxKind) MempoolTransaction {
	return MempoolTransaction{
		Tx: AccountTransaction{
			Hash:          felt.FromUint64(nonce + sender*1000),
			SenderAddress: felt.FromUint64(sender),
			Nonce:         felt.FromUint64(nonce),
			Kind:          kind,
		},
		ArrivedAt: ArrivedAtTimestamp(time.Now()),
	}
}

func TestMempoolInnerDedupByNonce(t *testing.T) {
	inner := NewMempoolInner()

	require.NoError(t, inner.InsertTx(tx(1, 7, TxInvoke), false))
	err := inner.InsertTx(tx(1, 7, TxInvoke), false)
	require.ErrorIs(t, err, ErrDuplicateNonce)

	require.NoError(t, inner.InsertTx(tx(1, 8, TxInvoke), false))

	var dest []MempoolTransaction
	inner.PopNextChunk(&dest, 10)
	require.Len(t, dest, 2)
	require.True(t, dest[0].Tx.Nonce.Equal(felt.FromUint64(7)))
	require.True(t, dest[1].Tx.Nonce.Equal(felt.FromUint64(8)))
}

func TestMempoolInnerHasDeployedContractTracking(t *testing.T) {
	inner := NewMempoolInner()
	addr := felt.FromUint64(5)

	require.False(t, inner.HasDeployedContract(addr))
	require.NoError(t, inner.InsertTx(MempoolTransaction{
		Tx: AccountTransaction{SenderAddress: addr, Nonce: felt.FromUint64(0), Kind: TxDeployAccount},
	}, false))
	require.True(t, inner.HasDeployedContract(addr))

	tx, ok := inner.PopNext()
	require.True(t, ok)
	require.Equal(t, TxDeployAccount, tx.Tx.Kind)
	require.False(t, inner.HasDeployedContract(addr))
}

func TestMempoolInnerOrdersAcrossSendersByArrival(t *testing.T) {
	inner := NewMempoolInner()
	first := tx(1, 0, TxInvoke)
	time.Sleep(time.Millisecond)
	second := tx(2, 0, TxInvoke)

	require.NoError(t, inner.InsertTx(second, false))
	require.NoError(t, inner.InsertTx(first, false))

	popped, ok := inner.PopNext()
	require.True(t, ok)
	require.True(t, popped.Tx.SenderAddress.Equal(felt.FromUint64(1)))
}

func TestMempoolInnerReaddTxs(t *testing.T) {
	inner := NewMempoolInner()
	require.NoError(t, inner.InsertTx(tx(1, 7, TxInvoke), false))

	var taken []MempoolTransaction
	inner.PopNextChunk(&taken, 1)
	require.Len(t, taken, 1)

	inner.ReaddTxs(taken)
	var dest []MempoolTransaction
	inner.PopNextChunk(&dest, 1)
	require.Len(t, dest, 1)
	require.True(t, dest[0].Tx.Nonce.Equal(felt.FromUint64(7)))
}

package sync

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/storage"
	"github.com/sncore/node/trie"
)

func makeSelfConsistentBlock(blockN uint64) *fetchedBlock {
	info := storage.BlockInfo{
		BlockNumber:      blockN,
		ParentHash:       felt.FromUint64(blockN),
		SequencerAddress: felt.FromUint64(9),
		Timestamp:        1000 + blockN,
		GlobalStateRoot:  felt.FromUint64(42),
	}
	inner := storage.BlockInner{
		Transactions: []storage.Transaction{{Hash: felt.FromUint64(100 + blockN)}},
	}
	fb := &fetchedBlock{blockN: blockN, info: info, inner: inner}
	txHashes := []felt.Felt{fb.inner.Transactions[0].Hash}
	txCommitment := trie.HashArray(txHashes)
	eventCommitment := trie.HashArray(nil)
	fb.blockHash = computeBlockHash(fb, txCommitment, eventCommitment)
	return fb
}

func TestVerifyOneAcceptsSelfConsistentBlock(t *testing.T) {
	v := newVerifier(zerolog.Nop())
	fb := makeSelfConsistentBlock(10)
	require.NoError(t, v.verifyOne(fb))
}

func TestVerifyOneRejectsMismatch(t *testing.T) {
	v := newVerifier(zerolog.Nop())
	fb := makeSelfConsistentBlock(10)
	fb.blockHash = felt.FromUint64(999999)
	err := v.verifyOne(fb)
	require.ErrorIs(t, err, ErrBlockHashMismatch)
}

func TestVerifyOneExemptsKnownBuggyMainnetRange(t *testing.T) {
	v := newVerifier(zerolog.Nop())
	fb := makeSelfConsistentBlock(2000)
	fb.blockHash = felt.FromUint64(999999)
	require.NoError(t, v.verifyOne(fb))
}

func TestIsHashMismatchExemptBoundaries(t *testing.T) {
	require.False(t, isHashMismatchExempt(1465))
	require.True(t, isHashMismatchExempt(1466))
	require.True(t, isHashMismatchExempt(2242))
	require.False(t, isHashMismatchExempt(2243))
}

package node

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/storage"
)

func TestSharedStateZeroValueDefaults(t *testing.T) {
	s := NewSharedState()
	require.Equal(t, SyncVerifiedState, s.SyncStatus())
	_, _, _, ok := s.PendingBlock()
	require.False(t, ok)
}

func TestSharedStateLatestL2StateUpdateFlipsStatus(t *testing.T) {
	s := NewSharedState()
	s.SetLatestL2StateUpdate(L2StateUpdate{BlockNumber: 100}, 50)
	require.Equal(t, SyncUnverifiedState, s.SyncStatus())
	require.Equal(t, uint64(100), s.LatestL2StateUpdate().BlockNumber)
}

func TestSharedStateLatestL2StateUpdateStaysVerifiedBehindL1(t *testing.T) {
	s := NewSharedState()
	s.SetLatestL2StateUpdate(L2StateUpdate{BlockNumber: 10}, 50)
	require.Equal(t, SyncVerifiedState, s.SyncStatus())
}

func TestSharedStatePendingBlockLifecycle(t *testing.T) {
	s := NewSharedState()
	info := storage.BlockInfo{BlockNumber: 7, BlockHash: felt.FromUint64(7)}
	inner := storage.BlockInner{}
	diff := *storage.NewStateDiff(7)

	s.SetPendingBlock(info, inner, diff)
	gotInfo, _, gotDiff, ok := s.PendingBlock()
	require.True(t, ok)
	require.Equal(t, uint64(7), gotInfo.BlockNumber)
	require.Equal(t, uint64(7), gotDiff.BlockNumber)

	s.ClearPendingBlock()
	_, _, _, ok = s.PendingBlock()
	require.False(t, ok)
}

func TestSharedStateLatestL1StateUpdateIsIndependentOfL2(t *testing.T) {
	s := NewSharedState()
	s.SetLatestL2StateUpdate(L2StateUpdate{BlockNumber: 100}, 50)
	s.SetLatestL1StateUpdate(L1StateUpdate{BlockNumber: 42, GlobalRoot: felt.FromUint64(9)})

	require.Equal(t, uint64(100), s.LatestL2StateUpdate().BlockNumber)
	require.Equal(t, uint64(42), s.LatestL1StateUpdate().BlockNumber)
}

func TestSharedStateHighestBlockHashAndNumber(t *testing.T) {
	s := NewSharedState()
	s.SetHighestBlockHashAndNumber(BlockHashAndNumber{Hash: felt.FromUint64(1), Number: 1})
	got := s.HighestBlockHashAndNumber()
	require.Equal(t, uint64(1), got.Number)
}

func TestSharedStateConcurrentAccess(t *testing.T) {
	s := NewSharedState()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n uint64) {
			defer wg.Done()
			s.SetLatestL2StateUpdate(L2StateUpdate{BlockNumber: n}, 0)
		}(uint64(i))
		go func() {
			defer wg.Done()
			_ = s.LatestL2StateUpdate()
		}()
	}
	wg.Wait()
}

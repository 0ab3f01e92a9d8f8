// Package node holds the process-wide, explicitly-shared state and
// configuration that every other package is handed by reference, replacing
// the teacher's reader-writer-guarded package globals
// (original_source/crates/client/sync/src/l2.rs's lazy_static! block) with
// one struct so test harnesses can instantiate multiple independent nodes,
// per spec.md §9's "SharedState" resolution.
package node

import (
	"sync"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/storage"
)

// SyncStatus mirrors the teacher's SyncStatus enum: whether the node is
// still catching up to L1-confirmed state, has caught up to L2 but not yet
// L1, or is fully synced and now tracking the speculative pending block.
type SyncStatus int

const (
	SyncVerifiedState SyncStatus = iota
	SyncUnverifiedState
	SyncPendingState
)

// String renders a SyncStatus for logging.
func (s SyncStatus) String() string {
	switch s {
	case SyncVerifiedState:
		return "verified"
	case SyncUnverifiedState:
		return "unverified"
	case SyncPendingState:
		return "pending"
	default:
		return "unknown"
	}
}

// L2StateUpdate is the latest Starknet-verified state observed on L2,
// mirroring the teacher's L2StateUpdate struct.
type L2StateUpdate struct {
	BlockNumber uint64
	GlobalRoot  felt.Felt
	BlockHash   felt.Felt
}

// L1StateUpdate is the latest state confirmed by the L1 core contract, kept
// separate from L2StateUpdate per spec.md §6: the two are written by
// different goroutines (sync pipeline vs. L1 listener) and read
// independently by RPC.
type L1StateUpdate struct {
	BlockNumber uint64
	GlobalRoot  felt.Felt
	BlockHash   felt.Felt
}

// BlockHashAndNumber pairs a block hash with its number.
type BlockHashAndNumber struct {
	Hash   felt.Felt
	Number uint64
}

// SharedState is the single point of mutable, cross-goroutine process state:
// the sync pipeline's latest verified update, the chain tip the pending-block
// maintainer observed upstream, the speculative pending block itself, and
// the current sync status. Every field is guarded by one RWMutex — per
// spec.md §5's locking discipline, this lock is always a leaf: no method
// here ever calls out to another package while holding it.
type SharedState struct {
	mu sync.RWMutex

	latestL2StateUpdate       L2StateUpdate
	latestL1StateUpdate       L1StateUpdate
	highestBlockHashAndNumber BlockHashAndNumber
	pendingBlockInfo          *storage.BlockInfo
	pendingBlockInner         *storage.BlockInner
	pendingStateUpdate        *storage.StateDiff
	syncStatus                SyncStatus
}

// NewSharedState returns a SharedState initialized to its zero-value
// defaults: SyncVerifiedState, no pending block, zeroed L2 state update.
func NewSharedState() *SharedState {
	return &SharedState{}
}

// LatestL2StateUpdate returns the latest verified L2 state update.
func (s *SharedState) LatestL2StateUpdate() L2StateUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestL2StateUpdate
}

// SetLatestL2StateUpdate records a new verified L2 state update and, if it
// is at or past the highest L1-confirmed block observed so far, flips the
// sync status to SyncUnverifiedState — mirroring the teacher's update_l2.
func (s *SharedState) SetLatestL2StateUpdate(u L2StateUpdate, l1ConfirmedBlockN uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestL2StateUpdate = u
	if u.BlockNumber >= l1ConfirmedBlockN {
		s.syncStatus = SyncUnverifiedState
	}
}

// LatestL1StateUpdate returns the most recent state confirmed by the L1
// core contract, as observed by the L1 listener.
func (s *SharedState) LatestL1StateUpdate() L1StateUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestL1StateUpdate
}

// SetLatestL1StateUpdate records a new L1-confirmed state update. This is
// distinct from SetLatestL2StateUpdate: the L1 listener and the sync
// pipeline are independent writers and must not clobber each other's field.
func (s *SharedState) SetLatestL1StateUpdate(u L1StateUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestL1StateUpdate = u
}

// HighestBlockHashAndNumber returns the most recent chain tip observed from
// the upstream sequencer's pending-block endpoint.
func (s *SharedState) HighestBlockHashAndNumber() BlockHashAndNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highestBlockHashAndNumber
}

// SetHighestBlockHashAndNumber records a new observed chain tip.
func (s *SharedState) SetHighestBlockHashAndNumber(v BlockHashAndNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highestBlockHashAndNumber = v
}

// PendingBlock returns the current speculative pending block and its state
// diff, if any.
func (s *SharedState) PendingBlock() (info storage.BlockInfo, inner storage.BlockInner, diff storage.StateDiff, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pendingBlockInfo == nil {
		return storage.BlockInfo{}, storage.BlockInner{}, storage.StateDiff{}, false
	}
	diffVal := storage.StateDiff{}
	if s.pendingStateUpdate != nil {
		diffVal = *s.pendingStateUpdate
	}
	return *s.pendingBlockInfo, *s.pendingBlockInner, diffVal, true
}

// SetPendingBlock overwrites the speculative pending block wholesale.
func (s *SharedState) SetPendingBlock(info storage.BlockInfo, inner storage.BlockInner, diff storage.StateDiff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingBlockInfo = &info
	s.pendingBlockInner = &inner
	s.pendingStateUpdate = &diff
}

// ClearPendingBlock removes the speculative pending block, called once its
// number has been confirmed by the sync pipeline.
func (s *SharedState) ClearPendingBlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingBlockInfo = nil
	s.pendingBlockInner = nil
	s.pendingStateUpdate = nil
}

// SyncStatus returns the current sync status.
func (s *SharedState) SyncStatus() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncStatus
}

// SetSyncStatus updates the current sync status.
func (s *SharedState) SetSyncStatus(status SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncStatus = status
}

package storage

import (
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// Scalar key labels within the meta and block_storage_meta columns. These
// are not a closed enum like schema.Column: the columns themselves are
// free-form label->value stores, matching the teacher's (go-ethereum) use of
// an unstructured "chain config" bucket alongside its typed columns.
const (
	metaKeyChainID = "chain_id"

	blockMetaKeySyncTip          = "sync_tip_block_n"
	blockMetaKeyPendingInfo      = "pending_block_info"
	blockMetaKeyPendingInner     = "pending_block_inner"
	blockMetaKeyPendingStateDiff = "pending_state_update"
	blockMetaKeyL1LastConfirmed  = "l1_last_confirmed_block_n"
)

// MetaStore is the scalar accessor over the meta and block_storage_meta
// columns: chain identity, sync tip, the speculative pending block, pending
// state update, and the L1 listener's last-confirmed block number. Writes
// here are single-key and non-batched (the ad-hoc case db.KeyValueWriter's
// doc comment describes), except StageSyncTip, which stages into a caller's
// batch.
type MetaStore struct {
	d db.Database
}

// NewMetaStore constructs a MetaStore over d.
func NewMetaStore(d db.Database) MetaStore {
	return MetaStore{d: d}
}

// ChainID returns the chain identifier recorded at genesis, if any.
func (s MetaStore) ChainID() (string, bool, error) {
	raw, ok, err := s.d.Get(schema.Meta, []byte(metaKeyChainID))
	if err != nil || !ok {
		return "", false, err
	}
	return string(raw), true, nil
}

// SetChainID records the chain identifier. Only ever written once, at
// genesis; callers are responsible for detecting and rejecting a mismatch.
func (s MetaStore) SetChainID(chainID string) error {
	return s.d.Put(schema.Meta, []byte(metaKeyChainID), []byte(chainID))
}

// SyncTip returns the highest block number committed to storage.
func (s MetaStore) SyncTip() (uint64, bool, error) {
	raw, ok, err := s.d.Get(schema.BlockStorageMeta, []byte(blockMetaKeySyncTip))
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := DecodeBlockN(raw)
	if err != nil {
		return 0, false, &DecodeError{Column: schema.Name(schema.BlockStorageMeta), Err: err}
	}
	return n, true, nil
}

// StageSyncTip adds a sync-tip update to batch, so it lands atomically with
// the rest of a block's writes (see BlockStore.StageBlock).
func (s MetaStore) StageSyncTip(batch db.Batch, blockN uint64) error {
	key, err := EncodeBlockN(blockN)
	if err != nil {
		return err
	}
	return batch.Put(schema.BlockStorageMeta, []byte(blockMetaKeySyncTip), key[:])
}

// PendingBlock returns the speculative, not-yet-confirmed block that the
// sync package's pending-block maintainer fetched from the feeder and stored
// here between L2 syncs.
func (s MetaStore) PendingBlock() (BlockInfo, BlockInner, bool, error) {
	infoRaw, ok, err := s.d.Get(schema.BlockStorageMeta, []byte(blockMetaKeyPendingInfo))
	if err != nil || !ok {
		return BlockInfo{}, BlockInner{}, false, err
	}
	info, err := DecodeBlockInfo(infoRaw)
	if err != nil {
		return BlockInfo{}, BlockInner{}, false, &DecodeError{Column: schema.Name(schema.BlockStorageMeta), Err: err}
	}
	innerRaw, ok, err := s.d.Get(schema.BlockStorageMeta, []byte(blockMetaKeyPendingInner))
	if err != nil || !ok {
		return BlockInfo{}, BlockInner{}, false, err
	}
	inner, err := DecodeBlockInner(innerRaw)
	if err != nil {
		return BlockInfo{}, BlockInner{}, false, &DecodeError{Column: schema.Name(schema.BlockStorageMeta), Err: err}
	}
	return info, inner, true, nil
}

// SetPendingBlock overwrites the speculative pending block wholesale; the
// pending-block maintainer replaces it outright on each poll that caches a
// block rather than diffing against the previous one.
func (s MetaStore) SetPendingBlock(info BlockInfo, inner BlockInner) error {
	if err := s.d.Put(schema.BlockStorageMeta, []byte(blockMetaKeyPendingInfo), EncodeBlockInfo(info)); err != nil {
		return err
	}
	return s.d.Put(schema.BlockStorageMeta, []byte(blockMetaKeyPendingInner), EncodeBlockInner(inner))
}

// ClearPendingBlock removes the speculative pending block, called once its
// block number is confirmed by the L2 sync pipeline.
func (s MetaStore) ClearPendingBlock() error {
	if err := s.d.Delete(schema.BlockStorageMeta, []byte(blockMetaKeyPendingInfo)); err != nil {
		return err
	}
	return s.d.Delete(schema.BlockStorageMeta, []byte(blockMetaKeyPendingInner))
}

// PendingStateDiff returns the state diff synthesized for the pending block.
func (s MetaStore) PendingStateDiff() (StateDiff, bool, error) {
	raw, ok, err := s.d.Get(schema.BlockStorageMeta, []byte(blockMetaKeyPendingStateDiff))
	if err != nil || !ok {
		return StateDiff{}, false, err
	}
	diff, err := DecodeStateDiff(raw)
	if err != nil {
		return StateDiff{}, false, &DecodeError{Column: schema.Name(schema.BlockStorageMeta), Err: err}
	}
	return diff, true, nil
}

// SetPendingStateDiff overwrites the pending block's state diff.
func (s MetaStore) SetPendingStateDiff(diff StateDiff) error {
	raw, err := EncodeStateDiff(diff)
	if err != nil {
		return err
	}
	return s.d.Put(schema.BlockStorageMeta, []byte(blockMetaKeyPendingStateDiff), raw)
}

// L1LastConfirmedBlockN returns the highest L2 block number the L1 listener
// has observed a LogStateUpdate confirm. The listener resets it to 0 when it
// starts; the sync pipeline reads it when publishing L2 state updates.
func (s MetaStore) L1LastConfirmedBlockN() (uint64, bool, error) {
	raw, ok, err := s.d.Get(schema.BlockStorageMeta, []byte(blockMetaKeyL1LastConfirmed))
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := DecodeBlockN(raw)
	if err != nil {
		return 0, false, &DecodeError{Column: schema.Name(schema.BlockStorageMeta), Err: err}
	}
	return n, true, nil
}

// SetL1LastConfirmedBlockN records the L1 listener's confirmation high-water mark.
func (s MetaStore) SetL1LastConfirmedBlockN(blockN uint64) error {
	key, err := EncodeBlockN(blockN)
	if err != nil {
		return err
	}
	return s.d.Put(schema.BlockStorageMeta, []byte(blockMetaKeyL1LastConfirmed), key[:])
}

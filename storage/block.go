package storage

import (
	"fmt"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// BlockStore is the typed accessor over the append-only block index:
// block_n_to_block_info, block_n_to_block_inner, tx_hash_to_block_n,
// block_hash_to_block_n, and block_state_diff, per spec.md §3/§4.2.
//
// Unlike the generic View/HistoryView types, BlockStore stages its writes
// directly into a caller-supplied db.Batch (StageBlock) rather than owning
// its own buffered batch, so the sync pipeline's apply stage can write
// block-info/inner/state-diff together with the sync-tip update in one
// atomic write. The three tries' new nodes and the history entries are not
// part of that write: the apply stage commits them in separate batches
// before it.
type BlockStore struct {
	d db.Database
}

// NewBlockStore constructs a BlockStore over d.
func NewBlockStore(d db.Database) BlockStore {
	return BlockStore{d: d}
}

// GetBlockInfo reads the header-shaped part of block blockN.
func (s BlockStore) GetBlockInfo(blockN uint64) (BlockInfo, bool, error) {
	key, err := EncodeBlockN(blockN)
	if err != nil {
		return BlockInfo{}, false, err
	}
	raw, ok, err := s.d.Get(schema.BlockNToBlockInfo, key[:])
	if err != nil || !ok {
		return BlockInfo{}, false, err
	}
	info, err := DecodeBlockInfo(raw)
	if err != nil {
		return BlockInfo{}, false, &DecodeError{Column: schema.Name(schema.BlockNToBlockInfo), Err: err}
	}
	return info, true, nil
}

// GetBlockInner reads the transactions+receipts of block blockN.
func (s BlockStore) GetBlockInner(blockN uint64) (BlockInner, bool, error) {
	key, err := EncodeBlockN(blockN)
	if err != nil {
		return BlockInner{}, false, err
	}
	raw, ok, err := s.d.Get(schema.BlockNToBlockInner, key[:])
	if err != nil || !ok {
		return BlockInner{}, false, err
	}
	inner, err := DecodeBlockInner(raw)
	if err != nil {
		return BlockInner{}, false, &DecodeError{Column: schema.Name(schema.BlockNToBlockInner), Err: err}
	}
	return inner, true, nil
}

// GetStateDiff reads the state diff declared for block blockN.
func (s BlockStore) GetStateDiff(blockN uint64) (StateDiff, bool, error) {
	key, err := EncodeBlockN(blockN)
	if err != nil {
		return StateDiff{}, false, err
	}
	raw, ok, err := s.d.Get(schema.BlockStateDiff, key[:])
	if err != nil || !ok {
		return StateDiff{}, false, err
	}
	diff, err := DecodeStateDiff(raw)
	if err != nil {
		return StateDiff{}, false, &DecodeError{Column: schema.Name(schema.BlockStateDiff), Err: err}
	}
	return diff, true, nil
}

// GetTxLocation resolves a transaction hash to its (block_n, tx_index).
func (s BlockStore) GetTxLocation(txHash felt.Felt) (TxLocation, bool, error) {
	raw, ok, err := s.d.Get(schema.TxHashToBlockN, EncodeFelt(txHash))
	if err != nil || !ok {
		return TxLocation{}, false, err
	}
	loc, err := DecodeTxLocation(raw)
	if err != nil {
		return TxLocation{}, false, &DecodeError{Column: schema.Name(schema.TxHashToBlockN), Err: err}
	}
	return loc, true, nil
}

// GetBlockNByHash resolves a block hash to its block number.
func (s BlockStore) GetBlockNByHash(blockHash felt.Felt) (uint64, bool, error) {
	raw, ok, err := s.d.Get(schema.BlockHashToBlockN, EncodeFelt(blockHash))
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := DecodeBlockN(raw)
	if err != nil {
		return 0, false, &DecodeError{Column: schema.Name(schema.BlockHashToBlockN), Err: err}
	}
	return n, true, nil
}

// StageBlock adds every write for one block commit into batch: block-info,
// block-inner, the per-tx reverse index, the block-hash index, and the
// state diff. It does not call batch.Write(); the sync pipeline's apply
// stage adds the sync-tip update to the same batch and writes it once, so
// the block-index rows and the sync tip land together. Trie nodes and
// history entries are written by the apply stage in their own batches
// beforehand, so the block commit as a whole is not one atomic write.
func (s BlockStore) StageBlock(batch db.Batch, info BlockInfo, inner BlockInner, diff StateDiff) error {
	key, err := EncodeBlockN(info.BlockNumber)
	if err != nil {
		return err
	}

	if err := batch.Put(schema.BlockNToBlockInfo, key[:], EncodeBlockInfo(info)); err != nil {
		return fmt.Errorf("storage: staging block info: %w", err)
	}
	if err := batch.Put(schema.BlockNToBlockInner, key[:], EncodeBlockInner(inner)); err != nil {
		return fmt.Errorf("storage: staging block inner: %w", err)
	}
	diffRaw, err := EncodeStateDiff(diff)
	if err != nil {
		return fmt.Errorf("storage: encoding state diff: %w", err)
	}
	if err := batch.Put(schema.BlockStateDiff, key[:], diffRaw); err != nil {
		return fmt.Errorf("storage: staging state diff: %w", err)
	}
	if err := batch.Put(schema.BlockHashToBlockN, EncodeFelt(info.BlockHash), key[:]); err != nil {
		return fmt.Errorf("storage: staging block hash index: %w", err)
	}
	for idx, txHash := range info.TxHashes {
		loc := TxLocation{BlockNumber: info.BlockNumber, TxIndex: uint32(idx)}
		if err := batch.Put(schema.TxHashToBlockN, EncodeFelt(txHash), EncodeTxLocation(loc)); err != nil {
			return fmt.Errorf("storage: staging tx index for %s: %w", txHash, err)
		}
	}
	return nil
}

package sync

import (
	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/storage"
)

// fetchedBlock is the output of the fetch stage: a raw block and its state
// update, not yet verified or converted into storage's typed shapes.
type fetchedBlock struct {
	blockN      uint64
	blockHash   felt.Felt
	parentHash  felt.Felt
	info        storage.BlockInfo
	inner       storage.BlockInner
	diff        storage.StateDiff
	declaredABI map[felt.Felt][]byte // class hash -> raw class blob, for newly declared classes only
}

// mismatchExemptRange is the known-buggy mainnet block range (inclusive)
// where the feeder's reported block hash was computed with a transaction
// hashing bug later fixed upstream; blocks in this range are accepted
// without a hash recheck. Grounded on
// original_source/crates/client/sync/src/l2.rs's block_hash verification
// special-case for this exact range.
const (
	mismatchExemptStart = 1466
	mismatchExemptEnd   = 2242
)

func isHashMismatchExempt(blockN uint64) bool {
	return blockN >= mismatchExemptStart && blockN <= mismatchExemptEnd
}

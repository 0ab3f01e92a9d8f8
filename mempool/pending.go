package mempool

import (
	"time"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/node"
	"github.com/sncore/node/storage"
)

// resolvePendingBlockInfo returns the validation context for an incoming
// transaction: the stored speculative pending block if the pending-block
// maintainer has already produced one this round, otherwise a freshly
// synthesized one built from the latest confirmed block, per spec.md §4.7
// step 2 ("Obtain (or synthesize from the latest confirmed block) a pending
// block info"). Unlike the pending-block maintainer, this never writes
// storage: it's a read-only view used to validate a candidate transaction.
func resolvePendingBlockInfo(backend *storage.Backend, l1Data L1DataProvider, cfg node.Config) (PendingBlockInfo, error) {
	if info, _, ok, err := backend.Meta.PendingBlock(); err != nil {
		return PendingBlockInfo{}, err
	} else if ok {
		return PendingBlockInfo{
			ParentBlockHash:  info.ParentHash,
			SequencerAddress: info.SequencerAddress,
			Timestamp:        info.Timestamp,
			ProtocolVersion:  info.ProtocolVersion,
			GasPrices:        l1Data.GasPrices(),
			DAMode:           l1Data.DAMode(),
		}, nil
	}

	latest, err := latestBlockInfo(backend)
	if err != nil {
		return PendingBlockInfo{}, err
	}

	seq := felt.Zero
	if cfg.SequencerAddress != "" {
		seq, err = felt.FromHex(cfg.SequencerAddress)
		if err != nil {
			return PendingBlockInfo{}, err
		}
	}

	return PendingBlockInfo{
		ParentBlockHash:  latest.BlockHash,
		SequencerAddress: seq,
		Timestamp:        uint64(time.Now().UTC().Unix()),
		ProtocolVersion:  cfg.ProtocolVersion,
		GasPrices:        l1Data.GasPrices(),
		DAMode:           l1Data.DAMode(),
	}, nil
}

package mempool

import (
	"context"
	"errors"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/storage"
)

// ValidationError wraps a rejection from the stateful validator, surfaced to
// the mempool's caller as an admission rejection rather than a storage or
// internal fault, per spec.md §7's "Validation(inner)" error kind.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "mempool: validation rejected: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// ErrNoGenesis is returned when a pending block is requested before any
// block has been synced, mirroring the original's Error::NoGenesis.
var ErrNoGenesis = errors.New("mempool: no genesis block in storage")

// Validator is the stateful, black-box executor the admission flow defers
// to, replacing the teacher's blockifier-backed ExecutionContext::tx_validator
// (out of scope per SPEC_FULL.md §1: "the transaction execution engine
// internals"). A real
// Validator runs account nonce/signature/balance preconditions and charges
// no fees on a dry run; skipDeployPrecondition lets a same-block invoke from
// a sender whose deploy-account transaction is still only queued (not yet
// executed) skip the nonce/signature check that would otherwise fail.
type Validator interface {
	Validate(ctx context.Context, tx AccountTransaction, pending PendingBlockInfo, skipDeployPrecondition bool) error
}

// PendingBlockInfo is the header-shaped context a validation run and a
// block-production attempt both need, built by resolvePendingBlockInfo.
type PendingBlockInfo struct {
	ParentBlockHash  felt.Felt
	SequencerAddress felt.Felt
	Timestamp        uint64
	ProtocolVersion  string
	GasPrices        GasPrices
	DAMode           DAMode
}

// noopValidator accepts every transaction, for nodes or tests running
// without a wired executor.
type noopValidator struct{}

func (noopValidator) Validate(context.Context, AccountTransaction, PendingBlockInfo, bool) error {
	return nil
}

// latestBlockInfo resolves the chain tip's BlockInfo, the seed for pending
// block synthesis, returning ErrNoGenesis if storage is empty.
func latestBlockInfo(backend *storage.Backend) (storage.BlockInfo, error) {
	tip, ok, err := backend.Meta.SyncTip()
	if err != nil {
		return storage.BlockInfo{}, err
	}
	if !ok {
		return storage.BlockInfo{}, ErrNoGenesis
	}
	info, ok, err := backend.Blocks.GetBlockInfo(tip)
	if err != nil {
		return storage.BlockInfo{}, err
	}
	if !ok {
		return storage.BlockInfo{}, ErrNoGenesis
	}
	return info, nil
}

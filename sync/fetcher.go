package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/storage"
	"github.com/sncore/node/sync/feeder"
)

// fetchRetryBaseIntervalMS and fetchMaxRetries, with the 30s elapsed cap in
// exponentialBackoff, resolve SPEC_FULL.md §9's Open Question on retry
// policy for a feeder that is transiently unavailable. A block the feeder
// has not produced yet is not retried (see fetchOne).
const (
	fetchRetryBaseIntervalMS = 250
	fetchMaxRetries          = 5
)

// fetcher pulls raw blocks and state updates from the feeder gateway,
// retrying transient failures with exponential backoff.
type fetcher struct {
	client *feeder.Client
}

func newFetcher(client *feeder.Client) *fetcher {
	return &fetcher{client: client}
}

// fetchOne retrieves and minimally reshapes block blockN and its state
// update into a fetchedBlock, retrying feeder.TransientError up to the
// configured budget. A non-transient error (malformed response, 4xx other
// than 429) fails immediately without retry. feeder.ErrBlockNotFound is
// never retried and is returned unwrapped as ErrTipReached, distinguishing
// "chain tip reached" from every other fetch failure.
func (f *fetcher) fetchOne(ctx context.Context, blockN uint64) (*fetchedBlock, error) {
	var rawBlock *feeder.RawBlock
	var rawUpdate *feeder.RawStateUpdate

	op := func() error {
		b, err := f.client.GetBlock(ctx, blockN)
		if err != nil {
			return classifyFetchErr(err)
		}
		u, err := f.client.GetStateUpdate(ctx, blockN)
		if err != nil {
			return classifyFetchErr(err)
		}
		rawBlock, rawUpdate = b, u
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.WithContext(exponentialBackoff(), ctx), fetchMaxRetries)

	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, feeder.ErrBlockNotFound) {
			return nil, ErrTipReached
		}
		return nil, fmt.Errorf("%w: block %d: %v", ErrFetchRetryLimit, blockN, err)
	}

	fb, err := reshapeFetchedBlock(blockN, rawBlock, rawUpdate)
	if err != nil {
		return nil, err
	}

	if len(rawUpdate.StateDiff.DeclaredClasses) > 0 || len(rawUpdate.StateDiff.OldDeclaredContracts) > 0 {
		blobs, err := f.fetchDeclaredClasses(ctx, rawUpdate)
		if err != nil {
			return nil, err
		}
		fb.declaredABI = blobs
	}

	return fb, nil
}

// fetchDeclaredClasses retrieves the raw class blob for every class newly
// declared in this block, so the commit stage can persist it via
// storage.ClassStore without a second round trip per class later.
func (f *fetcher) fetchDeclaredClasses(ctx context.Context, ru *feeder.RawStateUpdate) (map[felt.Felt][]byte, error) {
	out := make(map[felt.Felt][]byte, len(ru.StateDiff.DeclaredClasses)+len(ru.StateDiff.OldDeclaredContracts))

	fetchOne := func(hashHex string) error {
		h, err := felt.FromHex(hashHex)
		if err != nil {
			return fmt.Errorf("sync: parsing declared class hash %q: %w", hashHex, err)
		}
		blob, err := f.client.GetClassByHash(ctx, hashHex)
		if err != nil {
			return fmt.Errorf("sync: fetching class %s: %w", hashHex, err)
		}
		out[h] = blob
		return nil
	}

	for _, dc := range ru.StateDiff.DeclaredClasses {
		if err := fetchOne(dc.ClassHash); err != nil {
			return nil, err
		}
	}
	for _, hashHex := range ru.StateDiff.OldDeclaredContracts {
		if err := fetchOne(hashHex); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func classifyFetchErr(err error) error {
	if errors.Is(err, feeder.ErrBlockNotFound) {
		return backoff.Permanent(err) // tip reached, not a transient condition
	}
	var transient *feeder.TransientError
	if asTransient(err, &transient) {
		return err // retryable
	}
	return backoff.Permanent(err)
}

func asTransient(err error, target **feeder.TransientError) bool {
	te, ok := err.(*feeder.TransientError)
	if ok {
		*target = te
	}
	return ok
}

// exponentialBackoff builds the retry policy for a single block fetch:
// 250ms base interval, capped at 30s of total elapsed retrying, matching
// SPEC_FULL.md §9's resolved Open Question.
func exponentialBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = fetchRetryBaseIntervalMS * 1_000_000 // ms -> ns
	bo.MaxElapsedTime = 30 * 1_000_000_000
	return bo
}

func reshapeFetchedBlock(blockN uint64, rb *feeder.RawBlock, ru *feeder.RawStateUpdate) (*fetchedBlock, error) {
	blockHash, err := felt.FromHex(rb.BlockHash)
	if err != nil {
		return nil, fmt.Errorf("sync: block %d: parsing block_hash: %w", blockN, err)
	}
	parentHash, err := felt.FromHex(rb.ParentBlockHash)
	if err != nil {
		return nil, fmt.Errorf("sync: block %d: parsing parent_block_hash: %w", blockN, err)
	}
	seqAddr := felt.Zero
	if rb.SequencerAddress != "" {
		seqAddr, err = felt.FromHex(rb.SequencerAddress)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing sequencer_address: %w", blockN, err)
		}
	}
	stateRoot, err := felt.FromHex(rb.StateRoot)
	if err != nil {
		return nil, fmt.Errorf("sync: block %d: parsing state_root: %w", blockN, err)
	}

	txHashes := make([]felt.Felt, 0, len(rb.Transactions))
	txs := make([]storage.Transaction, 0, len(rb.Transactions))
	for i, raw := range rb.Transactions {
		var envelope struct {
			TransactionHash string `json:"transaction_hash"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("sync: block %d: tx %d: decoding envelope: %w", blockN, i, err)
		}
		h, err := felt.FromHex(envelope.TransactionHash)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: tx %d: parsing transaction_hash: %w", blockN, i, err)
		}
		txHashes = append(txHashes, h)
		txs = append(txs, storage.Transaction{Hash: h, Raw: raw})
	}

	receipts := make([]storage.Receipt, 0, len(rb.Receipts))
	for _, raw := range rb.Receipts {
		receipts = append(receipts, storage.Receipt{Raw: raw})
	}

	info := storage.BlockInfo{
		BlockNumber:      blockN,
		BlockHash:        blockHash,
		ParentHash:       parentHash,
		SequencerAddress: seqAddr,
		Timestamp:        rb.Timestamp,
		ProtocolVersion:  rb.StarknetVersion,
		GlobalStateRoot:  stateRoot,
		TxHashes:         txHashes,
		TxCount:          uint32(len(txHashes)),
	}
	inner := storage.BlockInner{Transactions: txs, Receipts: receipts}

	diff, err := reshapeStateDiff(blockN, ru)
	if err != nil {
		return nil, err
	}

	return &fetchedBlock{
		blockN:     blockN,
		blockHash:  blockHash,
		parentHash: parentHash,
		info:       info,
		inner:      inner,
		diff:       *diff,
	}, nil
}

func reshapeStateDiff(blockN uint64, ru *feeder.RawStateUpdate) (*storage.StateDiff, error) {
	diff := storage.NewStateDiff(blockN)

	for addrHex, cells := range ru.StateDiff.StorageDiffs {
		addr, err := felt.FromHex(addrHex)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing storage diff address %q: %w", blockN, addrHex, err)
		}
		entries := make([]storage.StorageDiffEntry, 0, len(cells))
		for _, c := range cells {
			k, err := felt.FromHex(c.Key)
			if err != nil {
				return nil, fmt.Errorf("sync: block %d: parsing storage key %q: %w", blockN, c.Key, err)
			}
			v, err := felt.FromHex(c.Value)
			if err != nil {
				return nil, fmt.Errorf("sync: block %d: parsing storage value %q: %w", blockN, c.Value, err)
			}
			entries = append(entries, storage.StorageDiffEntry{Key: k, Value: v})
		}
		diff.StorageDiffs[addr] = entries
	}

	for addrHex, nonceHex := range ru.StateDiff.Nonces {
		addr, err := felt.FromHex(addrHex)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing nonce address %q: %w", blockN, addrHex, err)
		}
		n, err := felt.FromHex(nonceHex)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing nonce %q: %w", blockN, nonceHex, err)
		}
		diff.Nonces[addr] = n
	}

	for _, dc := range ru.StateDiff.DeployedContracts {
		addr, err := felt.FromHex(dc.Address)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing deployed contract address %q: %w", blockN, dc.Address, err)
		}
		classHash, err := felt.FromHex(dc.ClassHash)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing deployed contract class hash %q: %w", blockN, dc.ClassHash, err)
		}
		diff.DeployedContracts[addr] = classHash
	}

	for _, rc := range ru.StateDiff.ReplacedClasses {
		addr, err := felt.FromHex(rc.Address)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing replaced class address %q: %w", blockN, rc.Address, err)
		}
		classHash, err := felt.FromHex(rc.ClassHash)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing replaced class hash %q: %w", blockN, rc.ClassHash, err)
		}
		diff.ReplacedClasses[addr] = classHash
	}

	for _, dc := range ru.StateDiff.DeclaredClasses {
		classHash, err := felt.FromHex(dc.ClassHash)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing declared class hash %q: %w", blockN, dc.ClassHash, err)
		}
		compiledHash, err := felt.FromHex(dc.CompiledClassHash)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing compiled class hash %q: %w", blockN, dc.CompiledClassHash, err)
		}
		diff.DeclaredClasses[classHash] = compiledHash
	}

	for _, hashHex := range ru.StateDiff.OldDeclaredContracts {
		h, err := felt.FromHex(hashHex)
		if err != nil {
			return nil, fmt.Errorf("sync: block %d: parsing deprecated declared class hash %q: %w", blockN, hashHex, err)
		}
		diff.DeprecatedDeclared = append(diff.DeprecatedDeclared, h)
	}

	return diff, nil
}

package sync

import "errors"

// ErrFetchRetryLimit is returned by the fetch stage when a block could not
// be retrieved within the configured backoff budget (base 250ms, max 5
// retries, max elapsed 30s — SPEC_FULL.md §9's Open Question resolution).
var ErrFetchRetryLimit = errors.New("sync: exceeded fetch retry budget")

// ErrTipReached is returned by fetchOne when the feeder reports the
// requested block does not exist yet (feeder.ErrBlockNotFound): the chain
// tip has been reached, per spec.md §4.5 step 1. The fetch stage treats
// this as a clean end of stream, not a pipeline failure.
var ErrTipReached = errors.New("sync: chain tip reached")

// ErrBlockHashMismatch is returned by the verify stage when a fetched
// block's recomputed hash disagrees with the one the feeder reported,
// outside the known-buggy mainnet exemption range.
var ErrBlockHashMismatch = errors.New("sync: recomputed block hash does not match feeder-reported hash")

// ErrNonSequentialBlock is returned by the commit stage when the next block
// handed to it does not immediately follow the current sync tip: a gap is
// fatal, per spec.md §5's Atomicity/ordering invariant.
var ErrNonSequentialBlock = errors.New("sync: commit stage received a non-sequential block")

// ErrChainIDMismatch is returned at pipeline startup when the feeder's
// reported chain id disagrees with a previously recorded one.
var ErrChainIDMismatch = errors.New("sync: feeder chain id does not match stored chain id")

// Package l1 implements the L1 confirmation listener: an event-filter
// subscription over an Ethereum JSON-RPC endpoint's "Starknet core"
// contract, grounded on
// original_source/crates/client/l1-messaging/src/worker.rs's sync loop —
// adapted from a single tokio event stream into two typed Go channels (one
// per event kind) so LogStateUpdate and LogMessageToL2 handling can be
// tested and reasoned about independently, matching this module's
// preference for explicit, narrow interfaces over one polymorphic event
// enum.
package l1

import "github.com/sncore/node/common/felt"

// LogStateUpdate is the Starknet core contract's state-update confirmation
// event: the block this root was computed for, its state root, and its
// block hash, per spec.md §4.6/§5.
type LogStateUpdate struct {
	BlockNumber uint64
	BlockHash   felt.Felt
	GlobalRoot  felt.Felt
}

// LogMessageToL2 is an L1->L2 message dispatch event, per spec.md §4.6.
type LogMessageToL2 struct {
	FromAddress felt.Felt
	ToAddress   felt.Felt
	Selector    felt.Felt
	Payload     []felt.Felt
	Nonce       felt.Felt
	Fee         felt.Felt
}

// EventSource is the typed event stream this listener consumes, replacing
// the teacher's concrete alloy-backed contract binding (out of scope per
// spec.md §1: "the L1 Ethereum RPC client and log decoding"). A production
// EventSource wraps a real JSON-RPC log subscription; tests supply a fake
// that replays a fixed event sequence.
type EventSource interface {
	// StateUpdates returns a channel of confirmed L1 state updates, closed
	// when the subscription ends (context cancellation or an unrecoverable
	// transport error, reported separately via Err).
	StateUpdates() <-chan LogStateUpdate
	// Messages returns a channel of L1->L2 message events.
	Messages() <-chan LogMessageToL2
	// Err returns the terminal error that closed the source's channels, if
	// any. Must only be read after both channels are observed closed.
	Err() error
}

// Package mempool implements the admission path: validating a candidate
// account transaction against the speculative pending block, then queuing it
// in a per-sender nonce chain for the block producer to drain,
// grounded on original_source/crates/client/mempool/src/lib.rs.
package mempool

import (
	"encoding/json"
	"time"

	"github.com/sncore/node/common/felt"
)

// ArrivedAtTimestamp stamps when a transaction entered the mempool, used to
// break ties between otherwise-ready transactions from different senders.
type ArrivedAtTimestamp time.Time

// TxKind distinguishes the three account transaction kinds the admission
// flow treats differently (sender/nonce resolution, deploy-account nonce
// skip), mirroring AccountTransaction's three variants.
type TxKind int

const (
	TxInvoke TxKind = iota
	TxDeclare
	TxDeployAccount
)

func (k TxKind) String() string {
	switch k {
	case TxInvoke:
		return "invoke"
	case TxDeclare:
		return "declare"
	case TxDeployAccount:
		return "deploy_account"
	default:
		return "unknown"
	}
}

// AccountTransaction is the admission-time view of a candidate transaction:
// enough to route and order it without interpreting its calldata, which
// belongs to the out-of-scope executor (see SPEC_FULL.md §1).
type AccountTransaction struct {
	Hash          felt.Felt
	SenderAddress felt.Felt
	Nonce         felt.Felt
	Kind          TxKind
	OnlyQuery     bool
	Raw           json.RawMessage
}

// MempoolTransaction pairs an admitted AccountTransaction with its arrival
// time, the unit the nonce chain orders and the block producer drains.
type MempoolTransaction struct {
	Tx        AccountTransaction
	ArrivedAt ArrivedAtTimestamp
}

// DAMode is the data-availability mode stamped onto a pending block header.
type DAMode int

const (
	DAModeCalldata DAMode = iota
	DAModeBlob
)

// GasPrices is the L1 gas price pair stamped onto a pending block header.
type GasPrices struct {
	L1GasPrice     felt.Felt
	L1DataGasPrice felt.Felt
}

// L1DataProvider supplies the gas prices and DA mode a synthesized pending
// block header needs, replacing the teacher's L1 price oracle (out of scope
// here: see SPEC_FULL.md §1, "the L1 RPC client's wire/ABI decoding").
type L1DataProvider interface {
	GasPrices() GasPrices
	DAMode() DAMode
}

// StaticL1DataProvider is an L1DataProvider returning fixed values, useful
// for tests and for a node configured without a live L1 gas-price feed.
type StaticL1DataProvider struct {
	Prices GasPrices
	Mode   DAMode
}

func (p StaticL1DataProvider) GasPrices() GasPrices { return p.Prices }
func (p StaticL1DataProvider) DAMode() DAMode       { return p.Mode }

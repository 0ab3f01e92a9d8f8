package storage

import "github.com/sncore/node/common/felt"

// BlockInfo is the header-shaped, always-present part of a block: its
// header fields, the hashes of its transactions, and its own block hash.
// Grounded on original_source/crates/primitives/block/src/lib.rs's header
// split between "info" and "inner".
type BlockInfo struct {
	BlockNumber      uint64
	BlockHash        felt.Felt
	ParentHash       felt.Felt
	SequencerAddress felt.Felt
	Timestamp        uint64
	ProtocolVersion  string
	GlobalStateRoot  felt.Felt
	TxHashes         []felt.Felt
	TxCount          uint32
}

// Transaction is an opaque, already-validated transaction envelope. The
// execution engine (out of scope, see SPEC_FULL.md §1) is the only
// component that interprets Raw; storage treats it as a content-addressed
// blob keyed by Hash.
type Transaction struct {
	Hash felt.Felt
	Raw  []byte
}

// Receipt is an opaque receipt blob produced by the executor for one
// transaction in a block.
type Receipt struct {
	Raw []byte
}

// BlockInner holds the per-block transactions and receipts, stored
// separately from BlockInfo per spec.md §3's column table.
type BlockInner struct {
	Transactions []Transaction
	Receipts     []Receipt
}

// StorageDiffEntry is one changed (key, value) cell in a contract's storage.
type StorageDiffEntry struct {
	Key   felt.Felt
	Value felt.Felt
}

// StateDiff is the per-block delta: storage writes, declared classes,
// deployed contracts, replaced classes, and nonce updates, per the
// GLOSSARY's "State diff" entry.
type StateDiff struct {
	BlockNumber        uint64
	StorageDiffs       map[felt.Felt][]StorageDiffEntry // contract address -> cells
	Nonces             map[felt.Felt]felt.Felt          // contract address -> new nonce
	DeployedContracts  map[felt.Felt]felt.Felt           // contract address -> class hash
	ReplacedClasses    map[felt.Felt]felt.Felt           // contract address -> new class hash
	DeclaredClasses    map[felt.Felt]felt.Felt           // class hash -> compiled class hash
	DeprecatedDeclared []felt.Felt                        // legacy (Cairo 0) class hashes declared
}

// NewStateDiff returns a StateDiff with every map initialized, ready for
// incremental population by the converter stage.
func NewStateDiff(blockN uint64) *StateDiff {
	return &StateDiff{
		BlockNumber:       blockN,
		StorageDiffs:      make(map[felt.Felt][]StorageDiffEntry),
		Nonces:            make(map[felt.Felt]felt.Felt),
		DeployedContracts: make(map[felt.Felt]felt.Felt),
		ReplacedClasses:   make(map[felt.Felt]felt.Felt),
		DeclaredClasses:   make(map[felt.Felt]felt.Felt),
	}
}

// TxLocation is the value stored in tx_hash_to_block_n: (block_n, tx_index).
type TxLocation struct {
	BlockNumber uint64
	TxIndex     uint32
}

// ContractClass is a content-addressed Sierra (or legacy Cairo 0) class blob.
type ContractClass struct {
	ClassHash felt.Felt
	Raw       []byte
	Legacy    bool
}

// CompiledClass is a content-addressed CASM compilation of a Sierra class.
type CompiledClass struct {
	ClassHash felt.Felt
	Raw       []byte
}

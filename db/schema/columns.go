// Package schema declares the fixed, closed set of column families the
// storage backend opens, their stable on-disk names, and the prefix-extractor
// lengths the history-indexed columns register for bloom-filter locality.
//
// This mirrors the teacher's (go-ethereum) convention of centralizing every
// column/key-prefix constant in one schema file, and the original Rust
// Column enum (see DESIGN.md) that this package is a direct port of.
package schema

// Column identifies one column family in the closed schema below. The zero
// value is intentionally invalid so a missing case in a switch is caught by
// accident-detection in tests rather than silently falling through.
type Column int

const (
	_ Column = iota

	// Meta holds node-wide scalars, keyed by short labels.
	Meta

	// BlockNToBlockInfo maps a u32-BE block number to its BlockInfo.
	BlockNToBlockInfo
	// BlockNToBlockInner maps a u32-BE block number to its BlockInner (txs+receipts).
	BlockNToBlockInner
	// TxHashToBlockN maps a 32-byte tx hash to (block_n, tx_index). Many-to-one.
	TxHashToBlockN
	// BlockHashToBlockN maps a 32-byte block hash to its u32-BE block number. One-to-one.
	BlockHashToBlockN
	// BlockStorageMeta holds sync tip and pending-block scalars.
	BlockStorageMeta

	// ContractClassData maps a class hash to its Sierra/legacy class blob.
	ContractClassData
	// CompiledContractClass maps a class hash to its CASM blob.
	CompiledContractClass
	// ContractToClassHashes is history-indexed: addr ++ block_n-BE -> class_hash.
	ContractToClassHashes
	// ContractToNonces is history-indexed: addr ++ block_n-BE -> nonce.
	ContractToNonces
	// ContractClassHashes maps a class hash to its compiled class hash.
	ContractClassHashes
	// ContractStorage is history-indexed: addr ++ storage_key ++ block_n-BE -> felt.
	ContractStorage
	// BlockStateDiff maps a u32-BE block number to its StateDiff.
	BlockStateDiff

	// BonsaiContractsTrie / Flat / Log back the contract trie.
	BonsaiContractsTrie
	BonsaiContractsFlat
	BonsaiContractsLog

	// BonsaiContractsStorageTrie / Flat / Log back the contract-storage trie.
	BonsaiContractsStorageTrie
	BonsaiContractsStorageFlat
	BonsaiContractsStorageLog

	// BonsaiClassesTrie / Flat / Log back the class trie.
	BonsaiClassesTrie
	BonsaiClassesFlat
	BonsaiClassesLog

	// L1MessageNonces marks L1->L2 message nonces already applied, for the
	// L1 listener's at-most-once delivery check.
	L1MessageNonces

	// MempoolNonces tracks, per sender address, the next nonce the mempool
	// expects to admit, distinct from ContractToNonces' history-indexed
	// confirmed-state view.
	MempoolNonces
)

// AddrPrefixLen is the fixed address-prefix length used by the two
// single-key history columns (contract_to_class_hashes, contract_to_nonces).
const AddrPrefixLen = 32

// StoragePrefixLen is the fixed address+storage-key prefix length used by
// contract_storage.
const StoragePrefixLen = 64

// info describes one column's stable identity and prefix-extractor config.
type info struct {
	name          string
	prefixLen     int // 0 means "no prefix extractor"
	historyIndex  bool
}

var columns = map[Column]info{
	Meta:                        {name: "meta"},
	BlockNToBlockInfo:           {name: "block_n_to_block_info"},
	BlockNToBlockInner:          {name: "block_n_to_block_inner"},
	TxHashToBlockN:              {name: "tx_hash_to_block_n"},
	BlockHashToBlockN:           {name: "block_hash_to_block_n"},
	BlockStorageMeta:            {name: "block_storage_meta"},
	ContractClassData:           {name: "contract_class_data"},
	CompiledContractClass:       {name: "compiled_contract_class"},
	ContractToClassHashes:       {name: "contract_to_class_hashes", prefixLen: AddrPrefixLen, historyIndex: true},
	ContractToNonces:            {name: "contract_to_nonces", prefixLen: AddrPrefixLen, historyIndex: true},
	ContractClassHashes:         {name: "contract_class_hashes"},
	ContractStorage:             {name: "contract_storage", prefixLen: StoragePrefixLen, historyIndex: true},
	BlockStateDiff:              {name: "block_state_diff"},
	BonsaiContractsTrie:         {name: "bonsai_contracts_trie"},
	BonsaiContractsFlat:         {name: "bonsai_contracts_flat"},
	BonsaiContractsLog:          {name: "bonsai_contracts_log"},
	BonsaiContractsStorageTrie:  {name: "bonsai_contracts_storage_trie"},
	BonsaiContractsStorageFlat:  {name: "bonsai_contracts_storage_flat"},
	BonsaiContractsStorageLog:   {name: "bonsai_contracts_storage_log"},
	BonsaiClassesTrie:           {name: "bonsai_classes_trie"},
	BonsaiClassesFlat:           {name: "bonsai_classes_flat"},
	BonsaiClassesLog:            {name: "bonsai_classes_log"},
	L1MessageNonces:             {name: "l1_message_nonces"},
	MempoolNonces:               {name: "mempool_nonces"},
}

// All enumerates the closed column set in a stable order; db backends use
// this to build their column-family descriptors at open time.
var All = []Column{
	Meta,
	BlockNToBlockInfo,
	BlockNToBlockInner,
	TxHashToBlockN,
	BlockHashToBlockN,
	BlockStorageMeta,
	ContractClassData,
	CompiledContractClass,
	ContractToClassHashes,
	ContractToNonces,
	ContractClassHashes,
	ContractStorage,
	BlockStateDiff,
	BonsaiContractsTrie,
	BonsaiContractsFlat,
	BonsaiContractsLog,
	BonsaiContractsStorageTrie,
	BonsaiContractsStorageFlat,
	BonsaiContractsStorageLog,
	BonsaiClassesTrie,
	BonsaiClassesFlat,
	BonsaiClassesLog,
	L1MessageNonces,
	MempoolNonces,
}

// Name returns the stable on-disk column family name. Panics if c is not a
// declared column: the column set is closed, so an unknown Column value here
// is a programming error, matching spec.md's "columns are a closed set"
// contract.
func Name(c Column) string {
	i, ok := columns[c]
	if !ok {
		panic("schema: unknown column")
	}
	return i.name
}

// PrefixLen returns the registered prefix-extractor length for c, or 0 if
// none is registered. Changing this value for an existing deployment is an
// on-disk format change (see SPEC_FULL.md §9) and must never be done silently.
func PrefixLen(c Column) int {
	return columns[c].prefixLen
}

// IsHistoryIndexed reports whether c uses the logical_key++block_n-BE scheme.
func IsHistoryIndexed(c Column) bool {
	return columns[c].historyIndex
}

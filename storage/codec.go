package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/sncore/node/common/felt"
)

// This file implements the deterministic compact binary encoding spec.md
// §4.2 calls for: big-endian numeric fields so lexicographic order equals
// numeric order, 32-byte felts, and length-prefixed aggregates for anything
// variable-sized. block_state_diff is the one documented exception: its
// payload is JSON, itself wrapped in the same length-prefixed envelope —
// preserved verbatim per spec.md §4.2/§9 rather than "fixed".

// EncodeBlockInfo serializes a BlockInfo.
func EncodeBlockInfo(b BlockInfo) []byte {
	buf := make([]byte, 0, 256)
	buf = appendUint64(buf, b.BlockNumber)
	buf = append(buf, EncodeFelt(b.BlockHash)...)
	buf = append(buf, EncodeFelt(b.ParentHash)...)
	buf = append(buf, EncodeFelt(b.SequencerAddress)...)
	buf = appendUint64(buf, b.Timestamp)
	buf = appendUint64(buf, uint64(len(b.ProtocolVersion)))
	buf = append(buf, []byte(b.ProtocolVersion)...)
	buf = append(buf, EncodeFelt(b.GlobalStateRoot)...)
	buf = appendUint32(buf, uint32(len(b.TxHashes)))
	for _, h := range b.TxHashes {
		buf = append(buf, EncodeFelt(h)...)
	}
	buf = appendUint32(buf, b.TxCount)
	return encodeLengthPrefixed(buf)
}

// DecodeBlockInfo deserializes a BlockInfo.
func DecodeBlockInfo(raw []byte) (BlockInfo, error) {
	b, err := decodeLengthPrefixed(raw)
	if err != nil {
		return BlockInfo{}, err
	}
	r := &reader{b: b}
	var info BlockInfo
	info.BlockNumber = r.uint64()
	info.BlockHash, err = DecodeFelt(r.bytes(felt.Len))
	if err != nil {
		return info, err
	}
	info.ParentHash, err = DecodeFelt(r.bytes(felt.Len))
	if err != nil {
		return info, err
	}
	info.SequencerAddress, err = DecodeFelt(r.bytes(felt.Len))
	if err != nil {
		return info, err
	}
	info.Timestamp = r.uint64()
	n := r.uint64()
	info.ProtocolVersion = string(r.bytes(int(n)))
	info.GlobalStateRoot, err = DecodeFelt(r.bytes(felt.Len))
	if err != nil {
		return info, err
	}
	count := r.uint32()
	info.TxHashes = make([]felt.Felt, count)
	for i := range info.TxHashes {
		info.TxHashes[i], err = DecodeFelt(r.bytes(felt.Len))
		if err != nil {
			return info, err
		}
	}
	info.TxCount = r.uint32()
	if r.err != nil {
		return info, r.err
	}
	return info, nil
}

// EncodeBlockInner serializes a BlockInner as length-prefixed transaction
// and receipt blobs.
func EncodeBlockInner(b BlockInner) []byte {
	buf := make([]byte, 0, 256)
	buf = appendUint32(buf, uint32(len(b.Transactions)))
	for _, tx := range b.Transactions {
		buf = append(buf, EncodeFelt(tx.Hash)...)
		buf = appendUint32(buf, uint32(len(tx.Raw)))
		buf = append(buf, tx.Raw...)
	}
	buf = appendUint32(buf, uint32(len(b.Receipts)))
	for _, rcpt := range b.Receipts {
		buf = appendUint32(buf, uint32(len(rcpt.Raw)))
		buf = append(buf, rcpt.Raw...)
	}
	return encodeLengthPrefixed(buf)
}

// DecodeBlockInner deserializes a BlockInner.
func DecodeBlockInner(raw []byte) (BlockInner, error) {
	b, err := decodeLengthPrefixed(raw)
	if err != nil {
		return BlockInner{}, err
	}
	r := &reader{b: b}
	var inner BlockInner
	txCount := r.uint32()
	inner.Transactions = make([]Transaction, txCount)
	for i := range inner.Transactions {
		h, derr := DecodeFelt(r.bytes(felt.Len))
		if derr != nil {
			return inner, derr
		}
		n := r.uint32()
		inner.Transactions[i] = Transaction{Hash: h, Raw: r.bytes(int(n))}
	}
	rcptCount := r.uint32()
	inner.Receipts = make([]Receipt, rcptCount)
	for i := range inner.Receipts {
		n := r.uint32()
		inner.Receipts[i] = Receipt{Raw: r.bytes(int(n))}
	}
	if r.err != nil {
		return inner, r.err
	}
	return inner, nil
}

// stateDiffJSON is the wire shape of the JSON payload preserved inside the
// block_state_diff envelope.
type stateDiffJSON struct {
	BlockNumber        uint64                `json:"block_number"`
	StorageDiffs       map[string][][2]string `json:"storage_diffs"`
	Nonces             map[string]string      `json:"nonces"`
	DeployedContracts  map[string]string      `json:"deployed_contracts"`
	ReplacedClasses    map[string]string      `json:"replaced_classes"`
	DeclaredClasses    map[string]string      `json:"declared_classes"`
	DeprecatedDeclared []string               `json:"deprecated_declared_classes"`
}

// EncodeStateDiff implements the documented quirk: the StateDiff is
// marshaled to JSON, then that JSON text is itself wrapped in the standard
// length-prefixed binary envelope. Preserved for on-disk compatibility per
// SPEC_FULL.md §9; do not "fix" without a versioned migration.
func EncodeStateDiff(d StateDiff) ([]byte, error) {
	w := stateDiffJSON{
		BlockNumber:        d.BlockNumber,
		StorageDiffs:       make(map[string][][2]string, len(d.StorageDiffs)),
		Nonces:             make(map[string]string, len(d.Nonces)),
		DeployedContracts:  make(map[string]string, len(d.DeployedContracts)),
		ReplacedClasses:    make(map[string]string, len(d.ReplacedClasses)),
		DeclaredClasses:    make(map[string]string, len(d.DeclaredClasses)),
		DeprecatedDeclared: make([]string, len(d.DeprecatedDeclared)),
	}
	for addr, cells := range d.StorageDiffs {
		pairs := make([][2]string, len(cells))
		for i, c := range cells {
			pairs[i] = [2]string{c.Key.String(), c.Value.String()}
		}
		w.StorageDiffs[addr.String()] = pairs
	}
	for addr, n := range d.Nonces {
		w.Nonces[addr.String()] = n.String()
	}
	for addr, ch := range d.DeployedContracts {
		w.DeployedContracts[addr.String()] = ch.String()
	}
	for addr, ch := range d.ReplacedClasses {
		w.ReplacedClasses[addr.String()] = ch.String()
	}
	for ch, cch := range d.DeclaredClasses {
		w.DeclaredClasses[ch.String()] = cch.String()
	}
	for i, ch := range d.DeprecatedDeclared {
		w.DeprecatedDeclared[i] = ch.String()
	}

	payload, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling state diff json: %v", ErrSerde, err)
	}
	return encodeLengthPrefixed(payload), nil
}

// DecodeStateDiff reverses EncodeStateDiff.
func DecodeStateDiff(raw []byte) (StateDiff, error) {
	payload, err := decodeLengthPrefixed(raw)
	if err != nil {
		return StateDiff{}, err
	}
	var w stateDiffJSON
	if err := json.Unmarshal(payload, &w); err != nil {
		return StateDiff{}, fmt.Errorf("%w: unmarshaling state diff json: %v", ErrSerde, err)
	}

	d := NewStateDiff(w.BlockNumber)
	for addrHex, pairs := range w.StorageDiffs {
		addr, err := felt.FromHex(addrHex)
		if err != nil {
			return StateDiff{}, fmt.Errorf("%w: %v", ErrSerde, err)
		}
		cells := make([]StorageDiffEntry, len(pairs))
		for i, p := range pairs {
			k, err := felt.FromHex(p[0])
			if err != nil {
				return StateDiff{}, fmt.Errorf("%w: %v", ErrSerde, err)
			}
			v, err := felt.FromHex(p[1])
			if err != nil {
				return StateDiff{}, fmt.Errorf("%w: %v", ErrSerde, err)
			}
			cells[i] = StorageDiffEntry{Key: k, Value: v}
		}
		d.StorageDiffs[addr] = cells
	}
	if err := decodeFeltMap(w.Nonces, d.Nonces); err != nil {
		return StateDiff{}, err
	}
	if err := decodeFeltMap(w.DeployedContracts, d.DeployedContracts); err != nil {
		return StateDiff{}, err
	}
	if err := decodeFeltMap(w.ReplacedClasses, d.ReplacedClasses); err != nil {
		return StateDiff{}, err
	}
	if err := decodeFeltMap(w.DeclaredClasses, d.DeclaredClasses); err != nil {
		return StateDiff{}, err
	}
	for _, chHex := range w.DeprecatedDeclared {
		ch, err := felt.FromHex(chHex)
		if err != nil {
			return StateDiff{}, fmt.Errorf("%w: %v", ErrSerde, err)
		}
		d.DeprecatedDeclared = append(d.DeprecatedDeclared, ch)
	}
	return *d, nil
}

func decodeFeltMap(src map[string]string, dst map[felt.Felt]felt.Felt) error {
	for k, v := range src {
		kf, err := felt.FromHex(k)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSerde, err)
		}
		vf, err := felt.FromHex(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSerde, err)
		}
		dst[kf] = vf
	}
	return nil
}

// EncodeTxLocation serializes a TxLocation as (block_n u32-BE, tx_index u32-BE).
func EncodeTxLocation(loc TxLocation) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint32(out[0:4], uint32(loc.BlockNumber))
	binary.BigEndian.PutUint32(out[4:8], loc.TxIndex)
	return out
}

// DecodeTxLocation deserializes a TxLocation.
func DecodeTxLocation(b []byte) (TxLocation, error) {
	if len(b) != 8 {
		return TxLocation{}, fmt.Errorf("%w: tx location must be 8 bytes, got %d", ErrSerde, len(b))
	}
	return TxLocation{
		BlockNumber: uint64(binary.BigEndian.Uint32(b[0:4])),
		TxIndex:     binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

// EncodeContractClass serializes a ContractClass blob.
func EncodeContractClass(c ContractClass) []byte {
	buf := make([]byte, 0, len(c.Raw)+1)
	if c.Legacy {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, c.Raw...)
	return encodeLengthPrefixed(buf)
}

// DecodeContractClass deserializes a ContractClass blob. The caller supplies
// classHash since the column key, not the value, carries it.
func DecodeContractClass(classHash felt.Felt, raw []byte) (ContractClass, error) {
	b, err := decodeLengthPrefixed(raw)
	if err != nil {
		return ContractClass{}, err
	}
	if len(b) < 1 {
		return ContractClass{}, fmt.Errorf("%w: contract class blob too short", ErrSerde)
	}
	return ContractClass{ClassHash: classHash, Legacy: b[0] == 1, Raw: b[1:]}, nil
}

// EncodeCompiledClass serializes a CompiledClass (CASM) blob.
func EncodeCompiledClass(c CompiledClass) []byte {
	return encodeLengthPrefixed(c.Raw)
}

// DecodeCompiledClass deserializes a CompiledClass blob.
func DecodeCompiledClass(classHash felt.Felt, raw []byte) (CompiledClass, error) {
	b, err := decodeLengthPrefixed(raw)
	if err != nil {
		return CompiledClass{}, err
	}
	return CompiledClass{ClassHash: classHash, Raw: b}, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// reader is a tiny cursor over a byte slice for manual decode paths. Errors
// are sticky: once set, subsequent reads return zero values so callers can
// check r.err once at the end instead of threading errors through every call.
type reader struct {
	b   []byte
	pos int
	err error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.b) {
		r.err = fmt.Errorf("%w: reader out of bounds", ErrSerde)
		return nil
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) uint64() uint64 {
	b := r.bytes(8)
	if r.err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) uint32() uint32 {
	b := r.bytes(4)
	if r.err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

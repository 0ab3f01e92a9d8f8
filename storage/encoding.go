package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sncore/node/common/felt"
)

// EncodeBlockN encodes a block number as a big-endian uint32, so that
// lexicographic byte order equals numeric order (spec.md §4.2). Returns
// ErrInvalidBlockNumber if blockN does not fit a u32.
func EncodeBlockN(blockN uint64) ([4]byte, error) {
	var out [4]byte
	if blockN > math.MaxUint32 {
		return out, fmt.Errorf("%w: %d", ErrInvalidBlockNumber, blockN)
	}
	binary.BigEndian.PutUint32(out[:], uint32(blockN))
	return out, nil
}

// DecodeBlockN decodes a big-endian uint32 block number.
func DecodeBlockN(b []byte) (uint64, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: block number key must be 4 bytes, got %d", ErrSerde, len(b))
	}
	return uint64(binary.BigEndian.Uint32(b)), nil
}

// maxBlockNBytes is the key suffix used to seek just past the largest
// possible block number when looking up the floor entry for a target block,
// per spec.md §4.3's get_at algorithm ("seek to logical_key ++ (at_block+1)-BE").
var maxBlockNBytes = [4]byte{0xff, 0xff, 0xff, 0xff}

// EncodeFelt returns the canonical 32-byte big-endian encoding of f.
func EncodeFelt(f felt.Felt) []byte {
	b := f.Bytes()
	return b[:]
}

// DecodeFelt decodes a 32-byte big-endian felt.
func DecodeFelt(b []byte) (felt.Felt, error) {
	if len(b) != felt.Len {
		return felt.Felt{}, fmt.Errorf("%w: felt must be %d bytes, got %d", ErrSerde, felt.Len, len(b))
	}
	return felt.FromBytesBE(b), nil
}

// historyKey builds the physical key logicalKey ++ blockN-BE for a
// history-indexed column.
func historyKey(logicalKey []byte, blockN uint64) ([]byte, error) {
	suffix, err := EncodeBlockN(blockN)
	if err != nil {
		return nil, err
	}
	key := make([]byte, 0, len(logicalKey)+4)
	key = append(key, logicalKey...)
	key = append(key, suffix[:]...)
	return key, nil
}

// historySeekKey builds the seek position logicalKey ++ (atBlock+1)-BE used
// by GetAt's floor lookup. When atBlock is already math.MaxUint32 it seeks
// past the logical key entirely using an all-0xff suffix, preserving the
// "largest sub-block <= at_block" semantics at the boundary.
func historySeekKey(logicalKey []byte, atBlock uint64) []byte {
	key := make([]byte, 0, len(logicalKey)+4)
	key = append(key, logicalKey...)
	if atBlock >= math.MaxUint32 {
		return append(key, maxBlockNBytes[:]...)
	}
	var suffix [4]byte
	binary.BigEndian.PutUint32(suffix[:], uint32(atBlock+1))
	return append(key, suffix[:]...)
}

// encodeLengthPrefixed wraps payload in a 4-byte big-endian length prefix,
// the binary envelope used for larger aggregates (headers, state diffs) per
// spec.md §4.2.
func encodeLengthPrefixed(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

// decodeLengthPrefixed unwraps a value produced by encodeLengthPrefixed.
func decodeLengthPrefixed(b []byte) ([]byte, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: envelope too short", ErrSerde)
	}
	n := binary.BigEndian.Uint32(b[:4])
	if uint64(n) != uint64(len(b)-4) {
		return nil, fmt.Errorf("%w: envelope length mismatch: header says %d, have %d", ErrSerde, n, len(b)-4)
	}
	return b[4:], nil
}

// Package felt implements the Starknet field element: a 252-bit unsigned
// integer serialized as 32-byte big-endian, used throughout the storage and
// trie layers as the universal hash/address/key/value type.
package felt

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// Len is the on-disk and in-memory byte width of a Felt.
const Len = 32

// Felt is a Starknet field element, backed by a fixed-width 256-bit integer.
// Values are expected to stay below the Starknet prime (252 bits); callers
// that need modular reduction must do so explicitly, this type is a plain
// big-endian integer container.
type Felt struct {
	inner uint256.Int
}

// Zero is the additive identity.
var Zero = Felt{}

// FromBytesBE decodes a big-endian byte slice (of any length <= 32) into a Felt.
func FromBytesBE(b []byte) Felt {
	var f Felt
	f.inner.SetBytes(b)
	return f
}

// FromUint64 builds a Felt from a small unsigned integer.
func FromUint64(v uint64) Felt {
	var f Felt
	f.inner.SetUint64(v)
	return f
}

// Bytes returns the canonical 32-byte big-endian encoding.
func (f Felt) Bytes() [Len]byte {
	return f.inner.Bytes32()
}

// BytesSlice is a convenience wrapper returning Bytes as a slice.
func (f Felt) BytesSlice() []byte {
	b := f.Bytes()
	return b[:]
}

// IsZero reports whether f is the zero element.
func (f Felt) IsZero() bool {
	return f.inner.IsZero()
}

// Equal reports whether f and other encode the same value.
func (f Felt) Equal(other Felt) bool {
	return f.inner.Eq(&other.inner)
}

// Cmp orders two Felts as unsigned 252-bit integers.
func (f Felt) Cmp(other Felt) int {
	return f.inner.Cmp(&other.inner)
}

// String renders the canonical "0x"-prefixed hex form.
func (f Felt) String() string {
	b := f.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// Bit returns the bit at position i (0 = least significant), counting across
// the full 252-bit domain. Used by the trie subsystem's big-endian
// bit-decomposition of keys.
func (f Felt) Bit(i uint) bool {
	return f.inner.Bit(i)
}

// FromHex parses a "0x"-prefixed (or bare) hex string into a Felt.
func FromHex(s string) (Felt, error) {
	var f Felt
	if err := f.inner.SetFromHex(normalizeHex(s)); err != nil {
		return Felt{}, fmt.Errorf("felt: invalid hex %q: %w", s, err)
	}
	return f, nil
}

func normalizeHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s
	}
	return "0x" + s
}

// Package trie implements the three versioned sparse Merkle-Patricia tries
// (contract, contract-storage, class) described by spec.md §4.4: binary and
// edge nodes over a 251-bit felt keyspace, committed per block under an
// explicit version id, with no historical snapshots.
package trie

import "github.com/sncore/node/common/felt"

// Height is the fixed bit-depth of every trie in this package, matching
// Starknet's 251-bit trie keyspace.
const Height = 251

// HashFn combines two child hashes (or a child hash and a felt payload) into
// one felt, injected per trie instance so the contract/contract-storage
// tries can use a Pedersen stand-in and the class trie a Poseidon stand-in,
// per spec.md §4.4's "the chosen hash per trie is determined by the trie
// identity and is not configurable per call."
//
// Pedersen and Poseidon themselves are out of scope (SPEC_FULL.md §1): both
// stand-ins below are deterministic, collision-resistant-in-practice
// placeholders, not the real Starknet hash functions.
type HashFn func(a, b felt.Felt) felt.Felt

// Pedersen is the stand-in hash function wired to the contract and
// contract-storage tries.
func Pedersen(a, b felt.Felt) felt.Felt {
	return mixHash(0x50, a, b)
}

// Poseidon is the stand-in hash function wired to the class trie.
func Poseidon(a, b felt.Felt) felt.Felt {
	return mixHash(0x70, a, b)
}

// mixHash is a simple, deterministic felt mixing function shared by both
// stand-ins, distinguished only by a domain tag so the two hash identities
// never collide with each other over the same inputs.
func mixHash(domain byte, a, b felt.Felt) felt.Felt {
	var buf [1 + 2*felt.Len]byte
	buf[0] = domain
	ab := a.Bytes()
	bb := b.Bytes()
	copy(buf[1:1+felt.Len], ab[:])
	copy(buf[1+felt.Len:], bb[:])
	return felt.FromBytesBE(fnvDigest(buf[:]))
}

// fnvDigest produces a 32-byte digest via a widened FNV-1a mix, giving the
// stand-in hashes enough avalanche behavior to exercise the trie's
// collision-sensitive commit paths in tests without depending on a real
// cryptographic hash package the examples never import for this purpose.
func fnvDigest(data []byte) []byte {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var out [32]byte
	for round := 0; round < 4; round++ {
		h := uint64(offset64) ^ uint64(round)*prime64
		for _, b := range data {
			h ^= uint64(b)
			h *= prime64
		}
		for i := 0; i < 8; i++ {
			out[round*8+i] = byte(h >> (56 - 8*i))
		}
	}
	return out[:]
}

// edgeHash folds a child hash, its compressed path, and the path length into
// one felt. Real Starknet edge nodes compute `pedersen(child, path) + length`
// as field addition; this package's hash functions are opaque stand-ins (see
// Pedersen/Poseidon above), so edgeHash instead folds length in via a second
// mix rather than requiring felt arithmetic the stand-ins don't need
// elsewhere.
func edgeHash(h HashFn, child felt.Felt, path []bool, length int) felt.Felt {
	pathFelt := bitsToFelt(path)
	step := h(child, pathFelt)
	return h(step, felt.FromUint64(uint64(length)))
}

// binaryHash folds two child hashes into one felt.
func binaryHash(h HashFn, left, right felt.Felt) felt.Felt {
	return h(left, right)
}

// bitsToFelt packs bits (MSB first) into a Felt, used only to feed path
// segments into edgeHash.
func bitsToFelt(bits []bool) felt.Felt {
	if len(bits) == 0 {
		return felt.Zero
	}
	nbytes := (len(bits) + 7) / 8
	buf := make([]byte, nbytes)
	for i, b := range bits {
		if !b {
			continue
		}
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		buf[byteIdx] |= 1 << bitIdx
	}
	return felt.FromBytesBE(buf)
}

// KeyBits decomposes f into its Height-bit, most-significant-bit-first
// boolean path, per spec.md §4.4's "big-endian bit-decomposition of the felt
// key."
func KeyBits(f felt.Felt) []bool {
	bits := make([]bool, Height)
	for i := 0; i < Height; i++ {
		bits[i] = f.Bit(uint(Height - 1 - i))
	}
	return bits
}

// HashArray implements spec.md §1's second opaque primitive,
// `hash_array([felt]) -> felt`, used outside the trie subsystem itself (the
// sync pipeline's transaction/event commitment and block-hash recompute) to
// fold an ordered list of felts into one. Folds left-to-right with Pedersen,
// seeded by the array length so an empty array and a one-zero-element array
// never collide.
func HashArray(elems []felt.Felt) felt.Felt {
	acc := felt.FromUint64(uint64(len(elems)))
	for _, e := range elems {
		acc = Pedersen(acc, e)
	}
	return acc
}

// ContractCommitment computes the per-contract leaf value stored in the
// contract trie: h(class_hash, storage_root, nonce, 0), per spec.md §4.4.
func ContractCommitment(h HashFn, classHash, storageRoot, nonce felt.Felt) felt.Felt {
	step := h(classHash, storageRoot)
	step = h(step, nonce)
	return h(step, felt.Zero)
}

package trie

import (
	"encoding/binary"
	"fmt"

	"github.com/sncore/node/common/felt"
)

// kind tags a persisted trie node's shape on disk.
type kind byte

const (
	kindBinary kind = 1
	kindEdge   kind = 2
)

// node is the in-memory form of one internal trie node: either a binary
// fork (two child hashes) or an edge (a compressed run of same-direction
// bits leading to a single child), per spec.md §4.4's "standard Starknet
// trie definition."
type node struct {
	Kind   kind
	Left   felt.Felt // binary only
	Right  felt.Felt // binary only
	Path   []bool    // edge only, MSB first
	Length int       // edge only, == len(Path)
	Child  felt.Felt // edge only
}

func binaryNode(left, right felt.Felt) node {
	return node{Kind: kindBinary, Left: left, Right: right}
}

func edgeNode(path []bool, child felt.Felt) node {
	return node{Kind: kindEdge, Path: append([]bool(nil), path...), Length: len(path), Child: child}
}

// hash computes n's content-address under h.
func (n node) hash(h HashFn) felt.Felt {
	switch n.Kind {
	case kindBinary:
		return binaryHash(h, n.Left, n.Right)
	case kindEdge:
		return edgeHash(h, n.Child, n.Path, n.Length)
	default:
		panic("trie: unknown node kind")
	}
}

// encodeNode serializes n for persistence in the trie column family.
func encodeNode(n node) []byte {
	switch n.Kind {
	case kindBinary:
		buf := make([]byte, 0, 1+2*felt.Len)
		buf = append(buf, byte(kindBinary))
		buf = append(buf, n.Left.BytesSlice()...)
		buf = append(buf, n.Right.BytesSlice()...)
		return buf
	case kindEdge:
		nbytes := (n.Length + 7) / 8
		buf := make([]byte, 0, 1+2+nbytes+felt.Len)
		buf = append(buf, byte(kindEdge))
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(n.Length))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, packBits(n.Path)...)
		buf = append(buf, n.Child.BytesSlice()...)
		return buf
	default:
		panic("trie: unknown node kind")
	}
}

// decodeNode deserializes a node previously written by encodeNode.
func decodeNode(raw []byte) (node, error) {
	if len(raw) < 1 {
		return node{}, fmt.Errorf("trie: empty node encoding")
	}
	switch kind(raw[0]) {
	case kindBinary:
		if len(raw) != 1+2*felt.Len {
			return node{}, fmt.Errorf("trie: malformed binary node, len=%d", len(raw))
		}
		left := felt.FromBytesBE(raw[1 : 1+felt.Len])
		right := felt.FromBytesBE(raw[1+felt.Len : 1+2*felt.Len])
		return binaryNode(left, right), nil
	case kindEdge:
		if len(raw) < 3 {
			return node{}, fmt.Errorf("trie: malformed edge node header")
		}
		length := int(binary.BigEndian.Uint16(raw[1:3]))
		nbytes := (length + 7) / 8
		want := 3 + nbytes + felt.Len
		if len(raw) != want {
			return node{}, fmt.Errorf("trie: malformed edge node, len=%d want=%d", len(raw), want)
		}
		path := unpackBits(raw[3:3+nbytes], length)
		child := felt.FromBytesBE(raw[3+nbytes:])
		return edgeNode(path, child), nil
	default:
		return node{}, fmt.Errorf("trie: unknown node kind byte %d", raw[0])
	}
}

func packBits(bits []bool) []byte {
	nbytes := (len(bits) + 7) / 8
	out := make([]byte, nbytes)
	for i, b := range bits {
		if !b {
			continue
		}
		out[i/8] |= 1 << (7 - (i % 8))
	}
	return out
}

func unpackBits(b []byte, length int) []bool {
	out := make([]bool, length)
	for i := range out {
		out[i] = b[i/8]&(1<<(7-(i%8))) != 0
	}
	return out
}

// commonPrefixLen returns the length of the shared prefix of a and b.
func commonPrefixLen(a, b []bool) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

package felt

import "testing"

func TestFromBytesBERoundTrip(t *testing.T) {
	in := make([]byte, Len)
	in[0] = 0x01
	in[Len-1] = 0xff
	f := FromBytesBE(in)
	out := f.Bytes()
	if out != [Len]byte(toArray(in)) {
		t.Fatalf("round trip mismatch: got %x want %x", out, in)
	}
}

func toArray(b []byte) [Len]byte {
	var a [Len]byte
	copy(a[:], b)
	return a
}

func TestCmpOrdersAsUnsignedInteger(t *testing.T) {
	a := FromUint64(5)
	b := FromUint64(9)
	if a.Cmp(b) >= 0 {
		t.Fatalf("expected 5 < 9")
	}
	if b.Cmp(a) <= 0 {
		t.Fatalf("expected 9 > 5")
	}
	if a.Cmp(a) != 0 {
		t.Fatalf("expected equal comparison to be 0")
	}
}

func TestFromHex(t *testing.T) {
	f, err := FromHex("0x1a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Equal(FromUint64(26)) {
		t.Fatalf("expected 0x1a == 26, got %s", f)
	}

	if _, err := FromHex("not-hex"); err == nil {
		t.Fatalf("expected error on invalid hex")
	}
}

func TestIsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatalf("Zero should be zero")
	}
	if FromUint64(1).IsZero() {
		t.Fatalf("1 should not be zero")
	}
}

func TestBitBigEndianDecomposition(t *testing.T) {
	f := FromUint64(0b1011)
	if !f.Bit(0) || !f.Bit(1) || f.Bit(2) || !f.Bit(3) {
		t.Fatalf("unexpected bit decomposition for 0b1011")
	}
}

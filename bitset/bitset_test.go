package bitset

import "testing"

func TestSetGetClear(t *testing.T) {
	b := New(10)
	if !b.IsZero() {
		t.Fatalf("expected new bitset to be zero")
	}
	b.Set(3)
	b.Set(9)
	if !b.Get(3) || !b.Get(9) {
		t.Fatalf("expected bits 3 and 9 to be set")
	}
	if b.Cardinality() != 2 {
		t.Fatalf("expected cardinality 2, got %d", b.Cardinality())
	}
	b.Clear(3)
	if b.Get(3) {
		t.Fatalf("expected bit 3 to be cleared")
	}
}

func TestDisjointAndSubset(t *testing.T) {
	a := New(8)
	a.Set(0)
	a.Set(2)
	b := New(8)
	b.Set(1)
	b.Set(3)

	if !a.Disjoint(b) {
		t.Fatalf("expected a and b to be disjoint")
	}

	b.Set(0)
	if a.Disjoint(b) {
		t.Fatalf("expected a and b to overlap once bit 0 is shared")
	}

	sub := New(8)
	sub.Set(0)
	if !sub.Subset(b) {
		t.Fatalf("expected sub to be a subset of b")
	}
}

func TestUnion(t *testing.T) {
	a := New(8)
	a.Set(0)
	b := New(8)
	b.Set(1)

	a.Union(b)
	if !a.Get(0) || !a.Get(1) {
		t.Fatalf("expected union to contain bits from both sets")
	}
}

func TestIndices(t *testing.T) {
	b := New(20)
	b.Set(0)
	b.Set(8)
	b.Set(19)

	got := b.Indices()
	want := []int{0, 8, 19}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	for _, n := range []int{1, 7, 8, 9, 64, 100} {
		b := New(n)
		for i := 0; i < n; i += 3 {
			b.Set(i)
		}
		raw := b.Bytes()
		back, err := FromBytes(n, raw)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if !b.Equal(back) {
			t.Fatalf("n=%d: round trip mismatch: got %v want %v", n, back, b)
		}
	}
}

func TestBitOrderingLSBFirst(t *testing.T) {
	// index 0 occupies bit 0 of byte 0; index 8 occupies bit 0 of byte 1.
	b := New(9)
	b.Set(0)
	raw := b.Bytes()
	if raw[0] != 0x01 {
		t.Fatalf("expected byte 0 to be 0x01, got %#x", raw[0])
	}

	b2 := New(9)
	b2.Set(8)
	raw2 := b2.Bytes()
	if raw2[1] != 0x01 {
		t.Fatalf("expected byte 1 to be 0x01, got %#x", raw2[1])
	}
}

func TestFromBytesLengthMismatch(t *testing.T) {
	_, err := FromBytes(16, []byte{0x00})
	if err == nil {
		t.Fatalf("expected error on length mismatch")
	}
}

package schnorrsig

import (
	"testing"

	"go.albatross.dev/handel/internal/testutils"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	sk, pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %s", err)
	}
	msg := []byte("aggregate this")
	sig, err := Sign(sk, msg, []byte("aux"))
	if err != nil {
		t.Fatalf("Sign: %s", err)
	}
	if err := Verify(pk, msg, sig); err != nil {
		t.Fatalf("Verify: %s", err)
	}
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	sk, pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %s", err)
	}
	sig, err := Sign(sk, []byte("original"), nil)
	if err != nil {
		t.Fatalf("Sign: %s", err)
	}
	if err := Verify(pk, []byte("tampered"), sig); err == nil {
		t.Fatalf("expected Verify to reject a signature over a different message")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	sk1, _, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey sk1: %s", err)
	}
	_, pk2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey sk2: %s", err)
	}
	msg := []byte("aggregate this")
	sig, err := Sign(sk1, msg, nil)
	if err != nil {
		t.Fatalf("Sign: %s", err)
	}
	if err := Verify(pk2, msg, sig); err == nil {
		t.Fatalf("expected Verify to reject a signature checked against the wrong public key")
	}
}

func TestPublicKeyIsDeterministic(t *testing.T) {
	sk, pk, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %s", err)
	}
	testutils.AssertBytesEqual(t, pk[:], sk.PublicKey()[:])
}

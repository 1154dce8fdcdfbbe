package schnorrsig

import (
	"crypto/subtle"
	"errors"
	"math/big"
)

// PrivateKey is a 32-byte secp256k1 scalar.
type PrivateKey [32]byte

// PublicKey is the 32-byte x-only public key format BIP-340 uses: the
// X-coordinate of the public point with even Y, per the "lift_x" rule.
type PublicKey [32]byte

// Signature is a 64-byte BIP-340 signature: R.X || s.
type Signature [64]byte

// GenerateKey samples a fresh private key and derives its x-only public
// key.
func GenerateKey() (PrivateKey, PublicKey, error) {
	d, err := sampleScalar()
	if err != nil {
		return PrivateKey{}, PublicKey{}, err
	}
	var sk PrivateKey
	d.FillBytes(sk[:])
	return sk, sk.PublicKey(), nil
}

// PublicKey derives the x-only public key for sk: the X-coordinate of
// sk*G. A point and its negation share that X-coordinate, so no scalar
// negation is needed here; Sign and Verify apply the even-Y rule.
func (sk PrivateKey) PublicKey() PublicKey {
	d := new(big.Int).SetBytes(sk[:])
	p := scalarBaseMul(d)
	var pk PublicKey
	copy(pk[:], p.toBytes32()[:])
	return pk
}

// Sign produces a BIP-340 signature over msg with sk, following the
// reference algorithm exactly: derive an even-Y key pair, compute an
// RFC6979-free deterministic-ish nonce via tagged hashing of auxiliary
// randomness, then the Schnorr response s = k + e*d mod n.
func Sign(sk PrivateKey, msg []byte, aux []byte) (Signature, error) {
	d0 := new(big.Int).SetBytes(sk[:])
	if d0.Sign() == 0 || d0.Cmp(order()) >= 0 {
		return Signature{}, errors.New("schnorrsig: private key out of range")
	}

	P := scalarBaseMul(d0)
	d := new(big.Int).Set(d0)
	if !hasEvenY(P) {
		d.Sub(order(), d0)
	}

	auxHash := taggedHash(auxTag, aux)
	var db [32]byte
	d.FillBytes(db[:])
	t := xor32(db, auxHash)

	pb := P.toBytes32()
	nonceHash := taggedHash(nonceTag, t[:], pb[:], msg)
	kPrime := new(big.Int).Mod(new(big.Int).SetBytes(nonceHash[:]), order())
	if kPrime.Sign() == 0 {
		return Signature{}, errors.New("schnorrsig: derived nonce is zero")
	}

	R := scalarBaseMul(kPrime)
	k := new(big.Int).Set(kPrime)
	if !hasEvenY(R) {
		k.Sub(order(), kPrime)
	}

	rb := R.toBytes32()
	challenge := taggedHash(challengeTag, rb[:], pb[:], msg)
	e := new(big.Int).Mod(new(big.Int).SetBytes(challenge[:]), order())

	s := new(big.Int).Mul(e, d)
	s.Add(s, k)
	s.Mod(s, order())

	var sig Signature
	copy(sig[:32], rb[:])
	s.FillBytes(sig[32:])
	return sig, nil
}

// Verify reports whether sig is a valid BIP-340 signature over msg by the
// holder of pk.
func Verify(pk PublicKey, msg []byte, sig Signature) error {
	x := new(big.Int).SetBytes(pk[:])
	P, err := liftX(x)
	if err != nil {
		return err
	}

	r := new(big.Int).SetBytes(sig[:32])
	if r.Cmp(fieldPrime()) >= 0 {
		return errors.New("schnorrsig: signature R.X out of field range")
	}
	s := new(big.Int).SetBytes(sig[32:])
	if s.Cmp(order()) >= 0 {
		return errors.New("schnorrsig: signature s out of scalar range")
	}

	pb := P.toBytes32()
	challenge := taggedHash(challengeTag, sig[:32], pb[:], msg)
	e := new(big.Int).Mod(new(big.Int).SetBytes(challenge[:]), order())

	R := pointSub(scalarBaseMul(s), scalarMul(P, e))
	if isInfinity(R) {
		return errors.New("schnorrsig: computed R is the point at infinity")
	}
	if !hasEvenY(R) {
		return errors.New("schnorrsig: computed R has odd Y")
	}
	if R.X.Cmp(r) != 0 {
		return errors.New("schnorrsig: signature does not verify")
	}
	return nil
}

func xor32(a, b [32]byte) [32]byte {
	var out [32]byte
	subtle.XORBytes(out[:], a[:], b[:])
	return out
}

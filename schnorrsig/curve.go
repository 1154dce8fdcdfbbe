// Package schnorrsig is a concrete, BIP-340/secp256k1-based implementation
// of handel.Contribution and handel.Verifier, used by this module's own
// tests and by package sim. It is explicitly a stand-in scheme, not the
// real Handel signature scheme (typically BLS) - defining the production
// signature scheme is a non-goal of package handel itself.
//
// Its curve arithmetic fixes a Secp256k1/Curve naming mismatch seen in an
// earlier BIP-340 implementation this package draws on, and uses
// github.com/ethereum/go-ethereum/crypto/secp256k1 directly rather than
// through an intermediate wrapper type.
package schnorrsig

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto/secp256k1"
)

var curve = secp256k1.S256()

// point is a secp256k1 curve point in affine coordinates.
type point struct {
	X, Y *big.Int
}

func generator() point {
	return point{X: new(big.Int).Set(curve.Gx), Y: new(big.Int).Set(curve.Gy)}
}

func order() *big.Int {
	return curve.N
}

func fieldPrime() *big.Int {
	return curve.P
}

func (p point) toBytes32() [32]byte {
	var b [32]byte
	p.X.FillBytes(b[:])
	return b
}

func isInfinity(p point) bool {
	return p.X.Sign() == 0 && p.Y.Sign() == 0
}

func hasEvenY(p point) bool {
	return p.Y.Bit(0) == 0
}

func scalarBaseMul(s *big.Int) point {
	sp := new(big.Int).Mod(s, order())
	x, y := curve.ScalarBaseMult(sp.Bytes())
	return point{X: x, Y: y}
}

func scalarMul(p point, s *big.Int) point {
	sp := new(big.Int).Mod(s, order())
	x, y := curve.ScalarMult(p.X, p.Y, sp.Bytes())
	return point{X: x, Y: y}
}

func pointAdd(a, b point) point {
	x, y := curve.Add(a.X, a.Y, b.X, b.Y)
	return point{X: x, Y: y}
}

func pointNegate(p point) point {
	neg := new(big.Int).Sub(fieldPrime(), p.Y)
	neg.Mod(neg, fieldPrime())
	return point{X: p.X, Y: neg}
}

func pointSub(a, b point) point {
	return pointAdd(a, pointNegate(b))
}

// liftX recovers the unique curve point with even Y for the given
// X-coordinate, per BIP-340's lift_x.
func liftX(x *big.Int) (point, error) {
	p := fieldPrime()
	if x.Cmp(p) >= 0 {
		return point{}, errors.New("schnorrsig: x coordinate exceeds field size")
	}

	c := new(big.Int).Exp(x, big.NewInt(3), p)
	c.Add(c, big.NewInt(7))
	c.Mod(c, p)

	exp := new(big.Int).Add(p, big.NewInt(1))
	exp.Div(exp, big.NewInt(4))
	y := new(big.Int).Exp(c, exp, p)

	check := new(big.Int).Exp(y, big.NewInt(2), p)
	if c.Cmp(check) != 0 {
		return point{}, errors.New("schnorrsig: x is not a valid curve coordinate")
	}
	if y.Bit(0) != 0 {
		y.Sub(p, y)
	}
	return point{X: x, Y: y}, nil
}

func sampleScalar() (*big.Int, error) {
	b := make([]byte, 32)
	for {
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		k := new(big.Int).SetBytes(b)
		if k.Sign() != 0 && k.Cmp(order()) < 0 {
			return k, nil
		}
	}
}

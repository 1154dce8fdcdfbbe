package schnorrsig

import (
	"encoding/binary"
	"fmt"

	"go.albatross.dev/handel"
	"go.albatross.dev/handel/bitset"
)

// Contribution is a handel.Contribution backed by individual BIP-340
// signatures, one per contributing committee member. Unlike a real
// aggregatable scheme (e.g. BLS), combining two Contributions does not
// produce a single compressed signature - it just pools each member's
// signature under a shared contributor bit set. This keeps the example
// scheme honest about what it is: a vehicle for exercising package handel's
// combine/score/verify contract, not a production aggregation scheme.
type Contribution struct {
	n            int
	contributors *bitset.BitSet
	shares       map[handel.Identity]Signature
}

// NewSingleton returns a Contribution carrying exactly one member's share.
func NewSingleton(n int, member handel.Identity, sig Signature) *Contribution {
	bs := bitset.New(n)
	bs.Set(int(member))
	return &Contribution{
		n:            n,
		contributors: bs,
		shares:       map[handel.Identity]Signature{member: sig},
	}
}

// Contributors implements handel.Contribution.
func (c *Contribution) Contributors() *bitset.BitSet {
	return c.contributors
}

// Combine implements handel.Contribution.
func (c *Contribution) Combine(other handel.Contribution) error {
	o, ok := other.(*Contribution)
	if !ok {
		return fmt.Errorf("schnorrsig: cannot combine with %T", other)
	}
	if !c.contributors.Disjoint(o.contributors) {
		return handel.ErrOverlap
	}
	for member, sig := range o.shares {
		c.shares[member] = sig
	}
	c.contributors.Union(o.contributors)
	return nil
}

// Clone implements handel.Contribution.
func (c *Contribution) Clone() handel.Contribution {
	shares := make(map[handel.Identity]Signature, len(c.shares))
	for k, v := range c.shares {
		shares[k] = v
	}
	return &Contribution{n: c.n, contributors: c.contributors.Clone(), shares: shares}
}

// Bytes implements handel.Contribution: it serializes each contributing
// member's index (u16) and 64-byte signature, in ascending index order, so
// Bytes is deterministic regardless of the order shares were combined in.
func (c *Contribution) Bytes() []byte {
	indices := c.contributors.Indices()
	out := make([]byte, 0, len(indices)*(2+64))
	var idxBuf [2]byte
	for _, idx := range indices {
		binary.LittleEndian.PutUint16(idxBuf[:], uint16(idx))
		out = append(out, idxBuf[:]...)
		sig := c.shares[handel.Identity(idx)]
		out = append(out, sig[:]...)
	}
	return out
}

// FromBytes reconstructs a Contribution from a contributor bit set and the
// payload produced by Bytes - the factory package handel's Codec needs.
func FromBytes(contributors *bitset.BitSet, payload []byte) (*Contribution, error) {
	shares := make(map[handel.Identity]Signature)
	indices := contributors.Indices()
	const entrySize = 2 + 64
	if len(payload) != len(indices)*entrySize {
		return nil, fmt.Errorf("schnorrsig: payload length %d inconsistent with %d contributors", len(payload), len(indices))
	}
	for i := range indices {
		off := i * entrySize
		idx := handel.Identity(binary.LittleEndian.Uint16(payload[off : off+2]))
		var sig Signature
		copy(sig[:], payload[off+2:off+entrySize])
		shares[idx] = sig
	}
	return &Contribution{n: contributors.Len(), contributors: contributors, shares: shares}, nil
}

// Registry maps committee indices to their public keys, used by Verifier.
type Registry map[handel.Identity]PublicKey

// Verifier implements handel.Verifier by checking every contributing
// member's individual BIP-340 signature against message.
type Verifier struct {
	Registry Registry
}

// Verify implements handel.Verifier.
func (v Verifier) Verify(message []byte, contribution handel.Contribution) error {
	c, ok := contribution.(*Contribution)
	if !ok {
		return fmt.Errorf("schnorrsig: cannot verify %T", contribution)
	}
	for _, idx := range c.contributors.Indices() {
		member := handel.Identity(idx)
		sig, ok := c.shares[member]
		if !ok {
			return fmt.Errorf("%w: contribution claims member %d but carries no share for it", handel.ErrMalformedContribution, member)
		}
		pk, ok := v.Registry[member]
		if !ok {
			return fmt.Errorf("%w: unknown committee member %d", handel.ErrMalformedContribution, member)
		}
		if err := Verify(pk, message, sig); err != nil {
			return fmt.Errorf("%w: member %d: %s", handel.ErrMalformedContribution, member, err)
		}
	}
	return nil
}

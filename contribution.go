package handel

import "go.albatross.dev/handel/bitset"

// Contribution is an opaque combined or singleton contribution: an
// aggregated signature payload plus the bit set of committee indices folded
// into it. The core never inspects the signature payload itself - only
// Contributors() and Combine() - so any signature scheme can implement it.
//
// See package schnorrsig for a concrete BIP-340/secp256k1-based
// implementation used by this module's own tests and simulator; it is a
// stand-in for whatever real scheme (e.g. BLS) a deployment supplies, which
// this core deliberately does not define.
type Contribution interface {
	// Contributors returns the bit set of committee indices combined into
	// this contribution. The returned set may be the receiver's own, so a
	// later Combine on the receiver can change it; callers in this package
	// only read it, and clone it before extending a candidate.
	Contributors() *bitset.BitSet

	// Combine merges other into the receiver in place. other's
	// contributors must be disjoint from the receiver's; if they are not,
	// Combine returns ErrOverlap and leaves the receiver unchanged.
	Combine(other Contribution) error

	// Bytes returns the opaque signature payload for wire encoding. It
	// does not include the contributor bit set, which the codec carries
	// separately.
	Bytes() []byte

	// Clone returns a deep copy safe to mutate independently of the
	// receiver. The Store relies on this to keep a stable best contribution
	// while deriving new candidates from it.
	Clone() Contribution
}

// Verifier validates a Contribution received from the network before it is
// accepted into the Store. Verification is delegated entirely to the
// caller's signature scheme; the core only requires that it happen before
// PutCombined/PutIndividual.
type Verifier interface {
	// Verify reports whether contribution is a valid aggregate (or
	// singleton) over message for exactly the committee members named in
	// contribution.Contributors().
	Verify(message []byte, contribution Contribution) error
}

// Package handel implements the Handel multi-level signature aggregation
// core: a Byzantine-fault-tolerant protocol for aggregating partial
// contributions (typically BLS signature shares over a fixed message) from a
// known, ordered committee of N participants into a single combined
// contribution, in O(log N) communication rounds, tolerating arbitrary peer
// silence and byzantine behavior.
//
// [HANDEL]
//
//	Loss J., Moran T.,
//	"Handel: Practical Multi-Signature Aggregation for Large Byzantine
//	Committees"
//	<https://arxiv.org/abs/1906.05132>
//
// The package treats the cryptographic signature scheme, the wire transport,
// and persistence across restarts as external concerns: callers supply a
// Contribution implementation, a Partitioner, an Evaluator and a Sender, and
// drive the protocol with Tick and OnUpdate. See package schnorrsig for a
// concrete, BIP-340-based Contribution used by this module's own tests and
// by package sim.
package handel

package handel

import "go.albatross.dev/handel/bitset"

// Evaluator is a pure scoring function mapping a candidate contribution at a
// level to an integer utility. The concrete scoring function is a protocol
// parameter, but every implementation must obey:
//
//   - signatures with more contributors score higher;
//   - a contribution whose contributors are not contained in the level's
//     admissible set scores <= 0 (unusable);
//   - a duplicate of the current best scores no higher than the current
//     best (so the store never replaces a contribution with an identical
//     one);
//   - the all-peers-present contribution at a level scores maximally for
//     that level.
type Evaluator interface {
	Score(candidate Contribution, admissible *bitset.BitSet) int64
}

// DefaultEvaluator scores a contribution by its contributor cardinality,
// the simplest function satisfying Evaluator's contract: strictly
// increasing in contributor count, non-positive when the candidate strays
// outside the admissible set, and maximal exactly when every admissible
// member is present.
type DefaultEvaluator struct{}

// Score implements Evaluator.
func (DefaultEvaluator) Score(candidate Contribution, admissible *bitset.BitSet) int64 {
	contributors := candidate.Contributors()
	if !contributors.Subset(admissible) {
		return -1
	}
	return int64(contributors.Cardinality())
}

package handel

import (
	"fmt"

	"go.albatross.dev/handel/bitset"
	"golang.org/x/exp/slices"
)

// singletonEntry pairs a stored singleton with its arrival order, so the
// combine derivation in deriveBest can break score ties FIFO.
type singletonEntry struct {
	peer   Identity
	contrib Contribution
	seq    int
}

// levelStore holds the three maps a single level needs: the singleton
// contributions received directly from this level's own peers, the best
// contribution seen so far per sending peer, and the level's current best
// combined contribution.
type levelStore struct {
	admissible *bitset.BitSet

	individual map[Identity]*singletonEntry
	seq        int

	bestIncoming map[Identity]Contribution
	best         Contribution
}

func newLevelStore(admissible *bitset.BitSet) *levelStore {
	return &levelStore{
		admissible:   admissible,
		individual:   make(map[Identity]*singletonEntry),
		bestIncoming: make(map[Identity]Contribution),
	}
}

// Store is the per-protocol-instance repository of received contributions,
// one levelStore per Level, ranked by Evaluator score and deduplicated by
// contributor set. Its map-per-level layout and FIFO-ordered insertion
// mirror a mutex-guarded-map-keyed-by-member-index idiom, but Store itself
// carries no lock: Protocol serializes every call into it behind its own
// instance-wide mutex, so a separate one here would only ever be
// uncontended.
type Store struct {
	evaluator Evaluator
	levels    []*levelStore
}

// NewStore builds a Store with one levelStore per entry in admissibleSets,
// indexed by level id.
func NewStore(evaluator Evaluator, admissibleSets []*bitset.BitSet) *Store {
	levels := make([]*levelStore, len(admissibleSets))
	for i, adm := range admissibleSets {
		levels[i] = newLevelStore(adm)
	}
	return &Store{evaluator: evaluator, levels: levels}
}

func (s *Store) levelAt(level int) (*levelStore, error) {
	if level < 0 || level >= len(s.levels) {
		return nil, fmt.Errorf("%w: level %d out of bounds [0,%d)", ErrConfiguration, level, len(s.levels))
	}
	return s.levels[level], nil
}

// SetOwn seeds level 0 with the local node's own singleton contribution.
// Level 0's admissible set is {node_id} alone, so it is complete the moment
// this is called - it is never combined with anything else and never used
// to send.
func (s *Store) SetOwn(nodeID Identity, contrib Contribution) error {
	ls, err := s.levelAt(0)
	if err != nil {
		return err
	}
	ls.individual[nodeID] = &singletonEntry{peer: nodeID, contrib: contrib, seq: 0}
	ls.bestIncoming[nodeID] = contrib
	ls.best = contrib
	return nil
}

// PutIndividual stores a singleton contribution received from peerIdx at
// level. contrib is rejected with ErrMalformedContribution unless its
// Contributors set is exactly {peerIdx}.
func (s *Store) PutIndividual(level int, peerIdx Identity, contrib Contribution) error {
	ls, err := s.levelAt(level)
	if err != nil {
		return err
	}
	c := contrib.Contributors()
	if c.Cardinality() != 1 || !c.Get(int(peerIdx)) {
		return fmt.Errorf("%w: singleton at level %d must carry exactly peer %d", ErrMalformedContribution, level, peerIdx)
	}
	if _, exists := ls.individual[peerIdx]; exists {
		return nil // first delivery wins; duplicates are a no-op
	}
	ls.individual[peerIdx] = &singletonEntry{peer: peerIdx, contrib: contrib, seq: ls.seq}
	ls.seq++
	return nil
}

// PutCombined records contrib as the best contribution seen from peerIdx at
// level, then attempts to derive a new level-best by extending contrib with
// any disjoint singletons stored for level, replacing the level's best only
// if the derived candidate strictly outscores it. The returned bool reports
// whether that replacement happened, so a caller can reset any per-level
// send-cycle bookkeeping that depends on the best having just changed.
func (s *Store) PutCombined(level int, peerIdx Identity, contrib Contribution) (bool, error) {
	ls, err := s.levelAt(level)
	if err != nil {
		return false, err
	}

	contributors := contrib.Contributors()
	if !contributors.Subset(ls.admissible) {
		return false, fmt.Errorf("%w: contribution at level %d not contained in admissible set", ErrMalformedContribution, level)
	}

	scoreNew := s.evaluator.Score(contrib, ls.admissible)
	if scoreNew <= 0 {
		return false, fmt.Errorf("%w: contribution at level %d scored non-positive", ErrMalformedContribution, level)
	}

	if prior, ok := ls.bestIncoming[peerIdx]; ok {
		if scoreNew <= s.evaluator.Score(prior, ls.admissible) {
			return false, nil // no improvement: idempotent re-delivery
		}
	}
	ls.bestIncoming[peerIdx] = contrib

	candidate, err := s.deriveBest(ls, contrib)
	if err != nil {
		return false, err
	}

	candidateScore := s.evaluator.Score(candidate, ls.admissible)
	currentScore := int64(-1)
	if ls.best != nil {
		currentScore = s.evaluator.Score(ls.best, ls.admissible)
	}
	if candidateScore > currentScore {
		ls.best = candidate
		return true, nil
	}
	return false, nil
}

// deriveBest starts from incoming and greedily extends it with singletons
// stored at this level whose bit is absent from the running contributor
// set, in score order with FIFO tie-break. A singleton that would overlap
// the running set is simply skipped rather than aborting the whole
// derivation - only that one extension is discarded, the candidate built so
// far is kept.
func (s *Store) deriveBest(ls *levelStore, incoming Contribution) (Contribution, error) {
	base := incoming.Clone()
	running := base.Contributors().Clone()

	entries := make([]*singletonEntry, 0, len(ls.individual))
	for _, e := range ls.individual {
		entries = append(entries, e)
	}
	slices.SortStableFunc(entries, func(a, b *singletonEntry) int {
		sa := s.evaluator.Score(a.contrib, ls.admissible)
		sb := s.evaluator.Score(b.contrib, ls.admissible)
		if sa != sb {
			if sa > sb {
				return -1
			}
			return 1
		}
		return a.seq - b.seq
	})

	for _, e := range entries {
		if running.Get(int(e.peer)) {
			continue
		}
		if err := base.Combine(e.contrib); err != nil {
			continue // Overlap: discard this extension, keep what we have
		}
		running.Set(int(e.peer))
	}
	return base, nil
}

// Best returns the level's current best contribution, if any.
func (s *Store) Best(level int) (Contribution, bool) {
	ls, err := s.levelAt(level)
	if err != nil {
		return nil, false
	}
	return ls.best, ls.best != nil
}

// IsLevelSaturated reports whether the level's best contribution already
// covers its entire admissible set.
func (s *Store) IsLevelSaturated(level int) bool {
	ls, err := s.levelAt(level)
	if err != nil {
		return false
	}
	if ls.best == nil {
		return false
	}
	return ls.best.Contributors().Cardinality() == ls.admissible.Cardinality()
}

// Combined returns the combination of every completed-or-partial level-best
// from 0 up to and including level, used to produce the outbound update at
// level+1. Levels with no best yet are simply skipped - their bits are
// absent from the result, not an error - since admissible sets at distinct
// levels are disjoint by construction, the combine below never legitimately
// overlaps.
func (s *Store) Combined(level int) (Contribution, bool) {
	if level < 0 || level >= len(s.levels) {
		return nil, false
	}

	var result Contribution
	for i := 0; i <= level; i++ {
		best := s.levels[i].best
		if best == nil {
			continue
		}
		if result == nil {
			result = best.Clone()
			continue
		}
		if err := result.Combine(best); err != nil {
			// Disjointness across levels is a built-in invariant; a violation
			// here means a caller built inconsistent admissible sets.
			return nil, false
		}
	}
	return result, result != nil
}

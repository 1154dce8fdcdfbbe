package handel

import (
	"errors"
	"fmt"
	"math/bits"
)

// Range is a half-open range [Low, High) of committee indices.
type Range struct {
	Low, High int
}

// Size returns the number of indices the range covers.
func (r Range) Size() int {
	if r.High <= r.Low {
		return 0
	}
	return r.High - r.Low
}

// identities expands the range into the dense index list a Level stores.
func (r Range) identities() []Identity {
	out := make([]Identity, 0, r.Size())
	for i := r.Low; i < r.High; i++ {
		out = append(out, Identity(i))
	}
	return out
}

// Partitioner deterministically maps (N, node_id) to per-level peer ranges.
// Protocol and Level depend only on this two-method interface plus String,
// never on a concrete partitioning strategy.
type Partitioner interface {
	// Levels returns L, the number of levels (including level 0).
	Levels() int

	// Range returns the contiguous range of committee indices on level i's
	// opposite subtree. It returns ErrEmptyLevel when that range is empty
	// (possible at the top level when N is not a power of two).
	Range(level int) (Range, error)

	// String returns a short diagnostic label, for tracing only.
	String() string
}

// BinaryPartitioner implements the canonical "flip" algorithm: committee
// indices are laid out on a balanced binary tree of depth L-1 with node_id
// at a leaf; level i's peers are the indices in the sibling subtree at
// depth i.
type BinaryPartitioner struct {
	n      int
	nodeID Identity
}

// NewBinaryPartitioner returns a BinaryPartitioner for a committee of size n
// anchored at nodeID.
func NewBinaryPartitioner(n int, nodeID Identity) (*BinaryPartitioner, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: committee size must be at least 1, got %d", ErrConfiguration, n)
	}
	if int(nodeID) < 0 || int(nodeID) >= n {
		return nil, fmt.Errorf("%w: node_id %d out of committee bounds [0,%d)", ErrConfiguration, nodeID, n)
	}
	return &BinaryPartitioner{n: n, nodeID: nodeID}, nil
}

// Levels returns ceil(log2(n)) + 1.
func (p *BinaryPartitioner) Levels() int {
	return ceilLog2(p.n) + 1
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Range returns the sibling subtree range for the given level, per spec
// §4.1: level 0 is {node_id} alone; for i >= 1, the own subtree through
// level i-1 occupies a size-2^(i-1) aligned block, and the sibling is the
// other half of the enclosing size-2^i aligned block, clipped to [0, n).
func (p *BinaryPartitioner) Range(level int) (Range, error) {
	if level < 0 || level >= p.Levels() {
		return Range{}, fmt.Errorf("%w: level %d out of bounds [0,%d)", ErrConfiguration, level, p.Levels())
	}
	if level == 0 {
		return Range{Low: int(p.nodeID), High: int(p.nodeID) + 1}, nil
	}

	size := 1 << uint(level-1)
	blockStart := (int(p.nodeID) / (size * 2)) * (size * 2)
	ownStart := (int(p.nodeID) / size) * size

	var sibLow, sibHigh int
	if ownStart == blockStart {
		sibLow, sibHigh = blockStart+size, blockStart+size*2
	} else {
		sibLow, sibHigh = blockStart, blockStart+size
	}
	if sibLow > p.n {
		sibLow = p.n
	}
	if sibHigh > p.n {
		sibHigh = p.n
	}
	if sibLow >= sibHigh {
		return Range{}, ErrEmptyLevel
	}
	return Range{Low: sibLow, High: sibHigh}, nil
}

func (p *BinaryPartitioner) String() string {
	return fmt.Sprintf("binary-partitioner(n=%d,node=%d)", p.n, p.nodeID)
}

// BinomialPartitioner is an alternate strategy, adapted from the common-
// prefix-length binary search used by the San Fermin/ConsenSys Handel
// implementation: level i's candidate set is found by walking the bits of
// node_id from the most significant bit down to bit (level-1), flipping the
// branch taken at that bit. It is offered purely to exercise the same
// Partitioner interface with a second strategy; BinaryPartitioner is the
// default used elsewhere in this package.
type BinomialPartitioner struct {
	n       int
	nodeID  int
	bitsize int
}

// NewBinomialPartitioner returns a BinomialPartitioner for a committee of
// size n anchored at nodeID.
func NewBinomialPartitioner(n int, nodeID Identity) (*BinomialPartitioner, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: committee size must be at least 1, got %d", ErrConfiguration, n)
	}
	if int(nodeID) < 0 || int(nodeID) >= n {
		return nil, fmt.Errorf("%w: node_id %d out of committee bounds [0,%d)", ErrConfiguration, nodeID, n)
	}
	return &BinomialPartitioner{n: n, nodeID: int(nodeID), bitsize: ceilLog2(n)}, nil
}

func (p *BinomialPartitioner) Levels() int {
	return p.bitsize + 1
}

func (p *BinomialPartitioner) Range(level int) (Range, error) {
	if level < 0 || level > p.bitsize {
		return Range{}, fmt.Errorf("%w: level %d out of bounds [0,%d]", ErrConfiguration, level, p.bitsize)
	}
	if level == 0 {
		return Range{Low: p.nodeID, High: p.nodeID + 1}, nil
	}

	min, max := 0, p.n
	maxIdx := level - 1
	for idx := p.bitsize - 1; idx >= maxIdx && min <= max; idx-- {
		middle := (max + min) / 2
		set := p.nodeID&(1<<uint(idx)) != 0
		if set {
			if idx == maxIdx {
				max = middle
			} else {
				min = middle
			}
		} else {
			if idx == maxIdx {
				min = middle
			} else {
				max = middle
			}
		}
		if max == min || max-1 == 0 || min == p.n {
			break
		}
	}
	if min >= max {
		return Range{}, ErrEmptyLevel
	}
	return Range{Low: min, High: max}, nil
}

func (p *BinomialPartitioner) String() string {
	return fmt.Sprintf("binomial-partitioner(n=%d,node=%d)", p.n, p.nodeID)
}

// createLevels constructs the full vector of Levels for a committee,
// delegating range computation to partitioner and validating, level by
// level, that the own-subtree range grows consecutively - the Go
// equivalent of the Rust source's panic!("ranges must be consecutive"),
// surfaced here as ErrConfiguration instead. logger receives one Debugf per
// constructed level naming its peer set; pass a nopLogger{} when the caller
// has none.
func createLevels(partitioner Partitioner, nodeID Identity, logger Logger) ([]*Level, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	n := partitioner.Levels()
	levels := make([]*Level, n)

	treeLhsStart, treeLhsEnd := 0, 0

	for i := 0; i < n; i++ {
		r, err := partitioner.Range(i)
		if errors.Is(err, ErrEmptyLevel) {
			levels[i] = newLevel(i, nil)
			logger.Debugf("handel: level %d has no peers (n not a power of two)", i)
			continue
		}
		if err != nil {
			return nil, err
		}

		if i == 0 {
			lvl := newLevel(0, r.identities())
			lvl.started = true
			levels[i] = lvl
			logger.Debugf("handel: level %d peers=%v", i, lvl.PeerIDs())
			treeLhsStart, treeLhsEnd = int(nodeID), int(nodeID)+1
			continue
		}

		if int(nodeID) < treeLhsStart || int(nodeID) >= treeLhsEnd {
			return nil, fmt.Errorf("%w: node %d is not present in its own subtree at level %d", ErrConfiguration, nodeID, i)
		}
		ownIndex := int(nodeID) - treeLhsStart

		lvl := newLevel(i, r.identities())
		if lvl.NumPeers() > 0 {
			lvl.nextPeerIndex = ownIndex % lvl.NumPeers()
		}
		levels[i] = lvl
		logger.Debugf("handel: level %d peers=%v", i, lvl.PeerIDs())

		switch {
		case r.High == treeLhsStart:
			treeLhsStart = r.Low
		case r.Low == treeLhsEnd:
			treeLhsEnd = r.High
		default:
			return nil, fmt.Errorf("%w: partitioner produced non-consecutive ranges at level %d", ErrConfiguration, i)
		}
	}

	return levels, nil
}

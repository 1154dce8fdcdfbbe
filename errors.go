package handel

import "errors"

// Error kinds. Configuration aborts construction; the rest are recovered
// locally by the caller (logged and dropped) and never tear down the
// running Protocol.
var (
	// ErrConfiguration signals a fatal construction-time problem: a
	// non-consecutive Partitioner range, or node_id outside the committee.
	ErrConfiguration = errors.New("handel: configuration error")

	// ErrMalformedContribution signals a singleton whose contributor set
	// isn't exactly the sender, a bit set length mismatch, or a signature
	// that failed verification.
	ErrMalformedContribution = errors.New("handel: malformed contribution")

	// ErrOverlap signals a combine attempt between two non-disjoint
	// contributor sets.
	ErrOverlap = errors.New("handel: overlapping contributor sets")

	// ErrEmptyLevel is the internal Partitioner signal handled by
	// constructing an empty Level; it is not expected to escape the
	// partitioner/level construction path.
	ErrEmptyLevel = errors.New("handel: empty level")

	// ErrTerminal is returned by operations invoked after Abort or
	// completion; callers may ignore it.
	ErrTerminal = errors.New("handel: protocol is terminal")
)

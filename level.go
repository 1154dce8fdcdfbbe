package handel

// Level owns one tree level's peer set, its started/complete flags, and the
// round-robin send cursor. Level carries no internal mutex: Protocol
// serializes every call into a Level behind its own instance-wide lock, so a
// single-owner event loop already rules out concurrent access.
type Level struct {
	id      int
	peerIDs []Identity

	started       bool
	complete      bool
	finished      bool // every peer has been sent to at least once since the last best-contribution improvement
	sent          int  // cumulative peers contacted since the last improvement; saturates at finished
	nextPeerIndex int  // round-robin cursor into peerIDs
}

func newLevel(id int, peerIDs []Identity) *Level {
	return &Level{
		id:      id,
		peerIDs: peerIDs,
	}
}

// ID returns this level's index.
func (l *Level) ID() int {
	return l.id
}

// IsEmpty reports whether this level has no peers (possible at the top
// level when N is not a power of two).
func (l *Level) IsEmpty() bool {
	return len(l.peerIDs) == 0
}

// NumPeers returns the number of peers on this level.
func (l *Level) NumPeers() int {
	return len(l.peerIDs)
}

// IsStarted reports whether this level has begun sending.
func (l *Level) IsStarted() bool {
	return l.started
}

// IsComplete reports whether this level's best contribution already covers
// every peer in its admissible set.
func (l *Level) IsComplete() bool {
	return l.complete
}

// IsFinished reports whether every peer on this level has already been sent
// to at least once since the last time this level's best contribution
// improved. A finished level is skipped by the Tick send loop until its
// best improves (resetFinished).
func (l *Level) IsFinished() bool {
	return l.finished
}

// resetFinished clears the finished flag and the sent count (the round-robin
// cursor keeps its position), called when this
// level's stored best contribution has just improved: there is new
// information worth re-announcing to peers who were already sent the old,
// weaker best.
func (l *Level) resetFinished() {
	l.finished = false
	l.sent = 0
}

// Start transitions the level to started, if it was not already. It returns
// true iff this call performed the false->true transition, so callers (the
// Protocol's start rule) can tell whether they were the one to start it.
// started is a terminal flag: once true, it never reverts.
func (l *Level) Start() bool {
	if l.started {
		return false
	}
	l.started = true
	return true
}

// markComplete sets the terminal complete flag. Once set it is never
// cleared: a complete level's best contribution is immutable from then on.
func (l *Level) markComplete() {
	l.complete = true
}

// SelectNextPeers returns the next min(count, len(peerIDs)) peers by
// round-robin from the cursor, advancing it modulo len(peerIDs). For level 0
// or an empty level it returns an empty slice without advancing any state -
// the cursor must never be advanced modulo zero. The cursor advances even
// when the caller never actually sends the resulting update: selection
// itself is the only at-most-once guarantee made.
func (l *Level) SelectNextPeers(count int) []Identity {
	if l.id == 0 || l.IsEmpty() || count <= 0 {
		return nil
	}

	n := count
	if n > len(l.peerIDs) {
		n = len(l.peerIDs)
	}

	selected := make([]Identity, n)
	for i := 0; i < n; i++ {
		selected[i] = l.peerIDs[l.nextPeerIndex]
		l.nextPeerIndex = (l.nextPeerIndex + 1) % len(l.peerIDs)
	}

	l.sent += n
	if l.sent >= len(l.peerIDs) {
		l.finished = true
	}
	return selected
}

// PeerIDs returns the level's peer set (the committee indices on the
// opposite subtree at this depth). The returned slice must not be mutated.
func (l *Level) PeerIDs() []Identity {
	return l.peerIDs
}

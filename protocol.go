package handel

import (
	"fmt"
	"sync"
	"time"

	"go.albatross.dev/handel/bitset"
)

// Protocol orchestrates one aggregation: periodic updates, combining
// best-scored contributions up the tree, and driving levels to completion.
// A single instance-wide mutex serializes SubmitOwn, OnUpdate and Tick -
// there is no internal actor loop and no per-Level locking.
type Protocol struct {
	mu sync.Mutex

	committee *Committee
	nodeID    Identity
	message   []byte
	config    Config
	evaluator Evaluator
	verifier  Verifier
	sender    Sender

	partitioner Partitioner
	levels      []*Level
	store       *Store
	reputation  *reputation

	started   bool
	startTime time.Time

	ticks    uint64
	terminal bool
}

// New constructs a Protocol for one committee member aggregating
// contributions over message. partitioner must have already been validated
// against committee (see NewBinaryPartitioner); config is defaulted and
// validated via Config.validate.
func New(committee *Committee, nodeID Identity, message []byte, partitioner Partitioner, evaluator Evaluator, verifier Verifier, sender Sender, config Config) (*Protocol, error) {
	if !committee.Contains(nodeID) {
		return nil, fmt.Errorf("%w: node_id %d out of committee bounds [0,%d)", ErrConfiguration, nodeID, committee.Size())
	}
	config, err := config.validate()
	if err != nil {
		return nil, err
	}

	levels, err := createLevels(partitioner, nodeID, config.Logger)
	if err != nil {
		return nil, err
	}

	admissible := make([]*bitset.BitSet, len(levels))
	adm0 := bitset.New(committee.Size())
	adm0.Set(int(nodeID))
	admissible[0] = adm0
	for i := 1; i < len(levels); i++ {
		bs := bitset.New(committee.Size())
		for _, peer := range levels[i].PeerIDs() {
			bs.Set(int(peer))
		}
		admissible[i] = bs
	}

	p := &Protocol{
		committee:   committee,
		nodeID:      nodeID,
		message:     message,
		config:      config,
		evaluator:   evaluator,
		verifier:    verifier,
		sender:      sender,
		partitioner: partitioner,
		levels:      levels,
		store:       NewStore(evaluator, admissible),
		reputation:  newReputation(),
	}
	return p, nil
}

// SubmitOwn seeds level 0 with the local node's own singleton contribution,
// and records the protocol's start time for level-start-timeout purposes.
// It must be called exactly once, before the first Tick.
func (p *Protocol) SubmitOwn(contrib Contribution) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal {
		return ErrTerminal
	}
	if p.started {
		return fmt.Errorf("%w: SubmitOwn called more than once", ErrConfiguration)
	}
	if err := p.store.SetOwn(p.nodeID, contrib); err != nil {
		return err
	}
	p.levels[0].markComplete() // level 0's admissible set is {node_id} alone: always saturated
	p.started = true
	p.startTime = p.config.Clock.Now()
	if p.topLevelComplete() {
		p.terminal = true
	}
	return nil
}

// OnUpdate ingests one inbound update, the receiving half of the Update
// Sender/Receiver pairing. It validates that contrib's contributors are
// contained in the level's admissible set, verifies the aggregate, and
// feeds singleton and combined views into the Store. Any failure is
// recovered locally: the message is dropped, from's reputation is struck,
// and nil is returned - a verification failure never aborts the protocol,
// it only ever costs the sender a reputation strike.
func (p *Protocol) OnUpdate(from Identity, level int, contrib Contribution) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal {
		return nil
	}
	if level < 0 || level >= len(p.levels) {
		p.reputation.strike(from)
		p.config.Logger.Warnf("handel: dropping update from %d: level %d out of range", from, level)
		return nil
	}
	if p.levels[level].IsComplete() {
		return nil // a complete level's best is immutable; nothing to do
	}

	if err := p.verifier.Verify(p.message, contrib); err != nil {
		p.reputation.strike(from)
		p.config.Logger.Warnf("handel: dropping update from %d at level %d: %s", from, level, err)
		return nil
	}

	contributors := contrib.Contributors()
	if contributors.Cardinality() == 1 && contributors.Get(int(from)) {
		if err := p.store.PutIndividual(level, from, contrib); err != nil {
			p.reputation.strike(from)
			p.config.Logger.Warnf("handel: dropping individual from %d at level %d: %s", from, level, err)
			return nil
		}
	}

	improved, err := p.store.PutCombined(level, from, contrib)
	if err != nil {
		p.reputation.strike(from)
		p.config.Logger.Warnf("handel: dropping combined update from %d at level %d: %s", from, level, err)
		return nil
	}
	if improved {
		p.levels[level].resetFinished()
	}

	if p.store.IsLevelSaturated(level) {
		p.levels[level].markComplete()
		p.config.Logger.Infof("handel: level %d complete", level)
	}

	return nil
}

// Tick is the periodic driver: it applies the
// start rule to any not-yet-started level, then for every started level
// (complete or not) that has not already contacted every one of its
// peers since its best last improved, selects the next k peers and emits
// the current combined contribution covering the own-side subtree through
// that level. Empty outbound (no contribution derived yet) is suppressed.
func (p *Protocol) Tick() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal {
		return ErrTerminal
	}
	p.ticks++

	if p.config.OverallTimeout > 0 && p.started && p.config.Clock.Now().Sub(p.startTime) >= p.config.OverallTimeout {
		p.terminal = true
		return nil
	}

	p.applyStartRule()

	for i, lvl := range p.levels {
		if i == 0 || lvl.IsEmpty() || !lvl.IsStarted() || lvl.IsFinished() {
			continue
		}
		combined, ok := p.store.Combined(i - 1)
		if !ok {
			continue
		}
		peers := lvl.SelectNextPeers(p.config.PeersPerTick)
		for _, peer := range peers {
			if err := p.sender.Send(peer, i, combined); err != nil {
				p.config.Logger.Warnf("handel: send to %d at level %d failed: %s", peer, i, err)
			}
		}
	}

	if p.topLevelComplete() {
		p.terminal = true
	}
	return nil
}

// applyStartRule starts level i (i>=1) once either every level below it is
// complete, or its level-start timeout has elapsed since the protocol
// began, whichever comes first.
func (p *Protocol) applyStartRule() {
	elapsed := p.config.Clock.Now().Sub(p.startTime)
	for i := 1; i < len(p.levels); i++ {
		lvl := p.levels[i]
		if lvl.IsStarted() {
			continue
		}
		if p.allBelowComplete(i) || elapsed >= p.config.LevelStartTimeout(i) {
			lvl.Start()
		}
	}
}

func (p *Protocol) allBelowComplete(level int) bool {
	for i := 0; i < level; i++ {
		if p.levels[i].IsEmpty() {
			continue
		}
		if !p.levels[i].IsComplete() {
			return false
		}
	}
	return true
}

func (p *Protocol) topLevelComplete() bool {
	top := len(p.levels) - 1
	if top < 0 {
		return false
	}
	if p.levels[top].IsEmpty() {
		return p.allBelowComplete(top + 1)
	}
	return p.levels[top].IsComplete()
}

// Result returns the best aggregate known so far, covering every level up
// to the highest one with a derived best contribution. It returns false
// while no level holds a best contribution yet.
func (p *Protocol) Result() (Contribution, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Combined(len(p.levels) - 1)
}

// Abort marks the protocol terminal: further Tick/OnUpdate calls become
// no-ops (Tick returns ErrTerminal, OnUpdate returns nil), and Result
// returns whatever was aggregated up to this point.
func (p *Protocol) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminal = true
}

// IsTerminal reports whether the protocol has completed or been aborted.
func (p *Protocol) IsTerminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminal
}

// Reputation returns the strike count recorded against peer, for callers
// that want to surface peer health without the core gating on it.
func (p *Protocol) Reputation(peer Identity) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reputation.Strikes(peer)
}

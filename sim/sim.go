// Package sim is an in-process, channel-driven test harness that wires
// together N handel.Protocol instances without any real network transport:
// one goroutine per member reading from a dedicated channel, a
// sync.WaitGroup to join them, and a simple done/stop signal, carrying
// (level, contribution) updates instead of raw wire bytes.
package sim

import (
	"context"
	"sync"
	"time"

	"go.albatross.dev/handel"
)

// wireMessage is the payload exchanged between simulated nodes - the
// in-process equivalent of what package handel's Codec would otherwise
// serialize to bytes.
type wireMessage struct {
	from    handel.Identity
	level   int
	contrib handel.Contribution
}

// memSender implements handel.Sender by pushing directly onto a peer's
// inbox channel. A full inbox drops the message rather than blocking the
// tick, mirroring a real transport's fire-and-forget contract: no
// acknowledgement, no retry.
type memSender struct {
	from    handel.Identity
	inboxes map[handel.Identity]chan wireMessage
}

func (s *memSender) Send(peer handel.Identity, level int, contrib handel.Contribution) error {
	inbox, ok := s.inboxes[peer]
	if !ok {
		return nil // unknown peer: treat like silence
	}
	select {
	case inbox <- wireMessage{from: s.from, level: level, contrib: contrib}:
	default:
	}
	return nil
}

// Simulator coordinates a fixed set of nodes sharing one simulated network.
// Construct it, obtain a Sender per node via Sender(id) to build each
// node's handel.Protocol, Register each one, then Run.
type Simulator struct {
	inboxes    map[handel.Identity]chan wireMessage
	nodes      map[handel.Identity]*handel.Protocol
	tickPeriod time.Duration
}

// New returns an empty Simulator. tickPeriod governs how often each node's
// Protocol.Tick is invoked during Run.
func New(tickPeriod time.Duration) *Simulator {
	return &Simulator{
		inboxes:    make(map[handel.Identity]chan wireMessage),
		nodes:      make(map[handel.Identity]*handel.Protocol),
		tickPeriod: tickPeriod,
	}
}

// Sender reserves an inbox for id and returns the handel.Sender to
// construct that node's Protocol with. Must be called before Register.
func (s *Simulator) Sender(id handel.Identity) handel.Sender {
	s.inboxes[id] = make(chan wireMessage, 256)
	return &memSender{from: id, inboxes: s.inboxes}
}

// Register associates an already-constructed Protocol with id. Call this
// after the Protocol has been built with the Sender from Sender(id).
func (s *Simulator) Register(id handel.Identity, p *handel.Protocol) {
	s.nodes[id] = p
}

// Run drives every registered node's ticker and inbox-delivery loop until
// ctx is cancelled or every node's Protocol becomes terminal. It returns
// once all per-node goroutines have exited.
func (s *Simulator) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(len(s.nodes))

	for id, p := range s.nodes {
		go func(id handel.Identity, p *handel.Protocol) {
			defer wg.Done()
			s.runNode(ctx, id, p)
		}(id, p)
	}

	wg.Wait()
}

func (s *Simulator) runNode(ctx context.Context, id handel.Identity, p *handel.Protocol) {
	ticker := time.NewTicker(s.tickPeriod)
	defer ticker.Stop()

	inbox := s.inboxes[id]
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-inbox:
			_ = p.OnUpdate(msg.from, msg.level, msg.contrib)
		case <-ticker.C:
			_ = p.Tick()
			if p.IsTerminal() {
				return
			}
		}
	}
}

// Result returns id's final aggregate, if its Protocol has produced one.
func (s *Simulator) Result(id handel.Identity) (handel.Contribution, bool) {
	p, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return p.Result()
}

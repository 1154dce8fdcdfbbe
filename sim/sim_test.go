package sim

import (
	"context"
	"testing"
	"time"

	"go.albatross.dev/handel"
	"go.albatross.dev/handel/schnorrsig"
)

// buildSignedMesh wires n schnorrsig-signed nodes into a shared Simulator.
// Any id in exclude gets neither a Sender nor a registered Protocol, so it
// never submits and never ticks - the channel-simulator equivalent of a
// peer that is silent for the whole run. Its committee slot still exists
// (NewCommittee(n) counts it), so the surviving nodes' partitioning and
// admissible sets are unaffected; they simply never hear from it.
func buildSignedMesh(t *testing.T, n int, exclude map[int]bool, cfg handel.Config) (*Simulator, map[handel.Identity]*handel.Protocol, map[handel.Identity]schnorrsig.PrivateKey) {
	t.Helper()

	committee, err := handel.NewCommittee(n)
	if err != nil {
		t.Fatalf("NewCommittee: %s", err)
	}

	keys := make(map[handel.Identity]schnorrsig.PrivateKey, n)
	registry := make(schnorrsig.Registry, n)
	for i := 0; i < n; i++ {
		sk, pk, err := schnorrsig.GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey(%d): %s", i, err)
		}
		keys[handel.Identity(i)] = sk
		registry[handel.Identity(i)] = pk
	}
	verifier := schnorrsig.Verifier{Registry: registry}

	simulator := New(cfg.TickPeriod)
	protocols := make(map[handel.Identity]*handel.Protocol, n)
	for i := 0; i < n; i++ {
		if exclude[i] {
			continue
		}
		id := handel.Identity(i)
		partitioner, err := handel.NewBinaryPartitioner(n, id)
		if err != nil {
			t.Fatalf("NewBinaryPartitioner(%d): %s", id, err)
		}
		sender := simulator.Sender(id)
		p, err := handel.New(committee, id, []byte("finality signal"), partitioner, handel.DefaultEvaluator{}, verifier, sender, cfg)
		if err != nil {
			t.Fatalf("New(%d): %s", id, err)
		}
		protocols[id] = p
		simulator.Register(id, p)
	}
	return simulator, protocols, keys
}

func submitAll(t *testing.T, protocols map[handel.Identity]*handel.Protocol, keys map[handel.Identity]schnorrsig.PrivateKey, n int, msg []byte) {
	t.Helper()
	for id, p := range protocols {
		sig, err := schnorrsig.Sign(keys[id], msg, nil)
		if err != nil {
			t.Fatalf("Sign(%d): %s", id, err)
		}
		if err := p.SubmitOwn(schnorrsig.NewSingleton(n, id, sig)); err != nil {
			t.Fatalf("SubmitOwn(%d): %s", id, err)
		}
	}
}

// TestSimulatorSevenNodesAggregate covers a non-power-of-two committee
// (partitioner levels L0={0}, L1={1}, L2={2,3}, L3={4,5,6} from node 0's
// perspective): every node is honest and reachable, and every node's result
// converges to the full committee.
func TestSimulatorSevenNodesAggregate(t *testing.T) {
	const n = 7
	msg := []byte("finality signal")

	cfg := handel.DefaultConfig()
	cfg.TickPeriod = 2 * time.Millisecond
	cfg.OverallTimeout = 2 * time.Second

	simulator, protocols, keys := buildSignedMesh(t, n, nil, cfg)
	submitAll(t, protocols, keys, n, msg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	simulator.Run(ctx)

	for i := 0; i < n; i++ {
		id := handel.Identity(i)
		result, ok := simulator.Result(id)
		if !ok {
			t.Fatalf("node %d: expected a result", id)
		}
		if result.Contributors().Cardinality() != n {
			t.Fatalf("node %d: expected all %d contributors, got %d", id, n, result.Contributors().Cardinality())
		}
	}
}

// TestSimulatorFourNodesAllHonestConverge covers the smallest non-trivial,
// fully-honest, no-loss case: every node's result reaches the full
// committee well inside the overall timeout.
func TestSimulatorFourNodesAllHonestConverge(t *testing.T) {
	const n = 4
	msg := []byte("finality signal")

	cfg := handel.DefaultConfig()
	cfg.TickPeriod = 2 * time.Millisecond
	cfg.OverallTimeout = 2 * time.Second

	simulator, protocols, keys := buildSignedMesh(t, n, nil, cfg)
	submitAll(t, protocols, keys, n, msg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	simulator.Run(ctx)

	for i := 0; i < n; i++ {
		id := handel.Identity(i)
		result, ok := simulator.Result(id)
		if !ok {
			t.Fatalf("node %d: expected a result", id)
		}
		if result.Contributors().Cardinality() != n {
			t.Fatalf("node %d: expected full aggregation, got %d", id, result.Contributors().Cardinality())
		}
	}
}

// TestSimulatorSilentPeerExcludedAtTimeout covers a permanently silent peer:
// node 2 never submits and never ticks, so its level never saturates; the
// rest of the committee still reaches the overall timeout with a result
// covering every other member.
func TestSimulatorSilentPeerExcludedAtTimeout(t *testing.T) {
	const n = 4
	msg := []byte("finality signal")

	cfg := handel.DefaultConfig()
	cfg.TickPeriod = 2 * time.Millisecond
	cfg.OverallTimeout = 200 * time.Millisecond
	cfg.LevelStartTimeout = func(level int) time.Duration {
		return time.Duration(level) * 5 * time.Millisecond
	}

	simulator, protocols, keys := buildSignedMesh(t, n, map[int]bool{2: true}, cfg)
	submitAll(t, protocols, keys, n, msg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	simulator.Run(ctx)

	for i := 0; i < n; i++ {
		if i == 2 {
			continue
		}
		id := handel.Identity(i)
		result, ok := simulator.Result(id)
		if !ok {
			t.Fatalf("node %d: expected a partial result", id)
		}
		if result.Contributors().Get(2) {
			t.Fatalf("node %d: expected peer 2 to be absent from the result", id)
		}
		if result.Contributors().Cardinality() != n-1 {
			t.Fatalf("node %d: expected %d contributors, got %d", id, n-1, result.Contributors().Cardinality())
		}
	}
}

// TestSimulatorLevelStartTimeoutSkipsIncompleteLowerLevel covers the level-
// start timeout: node 1 is permanently silent, so every other node's level
// holding peer 1 never completes, yet a short LevelStartTimeout forces
// higher levels to start anyway. The rest of the committee still converges
// on a full result (minus peer 1) well before the overall timeout, which
// would be impossible if a level blocked forever on a lower level's
// completion.
func TestSimulatorLevelStartTimeoutSkipsIncompleteLowerLevel(t *testing.T) {
	const n = 7
	msg := []byte("finality signal")

	cfg := handel.DefaultConfig()
	cfg.TickPeriod = 2 * time.Millisecond
	cfg.OverallTimeout = 400 * time.Millisecond
	cfg.LevelStartTimeout = func(level int) time.Duration {
		return time.Duration(level) * 3 * time.Millisecond
	}

	simulator, protocols, keys := buildSignedMesh(t, n, map[int]bool{1: true}, cfg)
	submitAll(t, protocols, keys, n, msg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	simulator.Run(ctx)

	for i := 0; i < n; i++ {
		if i == 1 {
			continue
		}
		id := handel.Identity(i)
		result, ok := simulator.Result(id)
		if !ok {
			t.Fatalf("node %d: expected a partial result", id)
		}
		if result.Contributors().Get(1) {
			t.Fatalf("node %d: expected peer 1 to be absent from the result", id)
		}
		if result.Contributors().Cardinality() != n-1 {
			t.Fatalf("node %d: expected %d contributors, got %d", id, n-1, result.Contributors().Cardinality())
		}
	}
}

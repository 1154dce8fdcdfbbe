package handel

// Sender is the narrow outbound capability the Protocol depends on:
// fire-and-forget, no acknowledgement, no retry (retry is implicit via
// the next Tick). Implementations must not block the caller;
// a slow or unreachable peer must be handled asynchronously by the
// transport, not by stalling Tick.
type Sender interface {
	// Send transmits contrib for level to peer. Implementations should
	// treat delivery failure the same as peer silence: simply don't
	// deliver, and let the next tick's round-robin selection try someone
	// else.
	Send(peer Identity, level int, contrib Contribution) error
}

// Receiver is the inbound half of the transport adapter. A concrete
// transport deserializes wire payloads (see package handel's Codec) and
// calls Protocol.OnUpdate for each one; Receiver exists as an interface
// only so Protocol and its tests can depend on "deliver on_update" without
// pulling in any concrete transport.
type Receiver interface {
	// Deliver is called by the transport once per inbound update, after
	// decoding but before verification - verification is Protocol's job.
	Deliver(from Identity, level int, contrib Contribution) error
}

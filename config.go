package handel

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config carries the pure, immutable inputs to New. None of its fields are
// ever mutated after construction - there is no global, mutable
// configuration state.
type Config struct {
	// TickPeriod is the duration between Tick invocations the caller's
	// driver loop is expected to honor. The Protocol itself does not start
	// a timer and does not read TickPeriod; elapsed time is taken from
	// Clock.
	TickPeriod time.Duration

	// PeersPerTick bounds how many peers each started level sends an
	// update to per Tick. Typically 1-4.
	PeersPerTick int

	// LevelStartTimeout computes the deadline (relative to protocol start)
	// after which level i starts even if every lower level is still
	// incomplete. The default is (i+1) * 400ms.
	LevelStartTimeout func(level int) time.Duration

	// OverallTimeout is the hard cap on protocol duration; once elapsed,
	// Result returns whatever has been aggregated so far and the protocol
	// becomes terminal.
	OverallTimeout time.Duration

	// Logger receives diagnostic output. Defaults to a no-op logger; see
	// package handellog for a zap-backed implementation.
	Logger Logger

	// Clock supplies the current time for level-start and overall-timeout
	// decisions. Defaults to the wall clock; tests inject a fake to make
	// timeout behavior deterministic.
	Clock Clock
}

// DefaultConfig returns a 100ms tick period, up to 4 peers contacted per
// level per tick, a (i+1)*400ms level-start timeout, and a 30s overall
// timeout.
func DefaultConfig() Config {
	return Config{
		TickPeriod:   100 * time.Millisecond,
		PeersPerTick: 4,
		LevelStartTimeout: func(level int) time.Duration {
			return time.Duration(level+1) * 400 * time.Millisecond
		},
		OverallTimeout: 30 * time.Second,
	}
}

// validate fills in defaults for unset fields and rejects nonsensical ones.
// Every field is checked before returning, so a caller misconfiguring
// several fields at once sees all of them in a single error rather than
// fixing them one at a time.
func (c Config) validate() (Config, error) {
	var err error
	if c.PeersPerTick <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: peers per tick must be positive, got %d", ErrConfiguration, c.PeersPerTick))
	}
	if c.TickPeriod <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: tick period must be positive, got %s", ErrConfiguration, c.TickPeriod))
	}
	if c.OverallTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: overall timeout must be positive, got %s", ErrConfiguration, c.OverallTimeout))
	}
	if err != nil {
		return c, err
	}

	if c.LevelStartTimeout == nil {
		c.LevelStartTimeout = DefaultConfig().LevelStartTimeout
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	return c, nil
}

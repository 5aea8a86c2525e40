package application

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReconnectPolicy yields the delay before each reconnection attempt. It
// never gives up.
type ReconnectPolicy struct {
	b backoff.BackOff
}

// NewReconnectPolicy returns a constant-delay policy, or an exponential one
// (doubling, capped at maxDelay, no jitter) when maxDelay exceeds delay.
func NewReconnectPolicy(delay, maxDelay time.Duration) *ReconnectPolicy {
	if maxDelay <= delay {
		return &ReconnectPolicy{b: backoff.NewConstantBackOff(delay)}
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = delay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = maxDelay
	eb.MaxElapsedTime = 0
	eb.Reset()

	return &ReconnectPolicy{b: eb}
}

// Next returns the delay before the next attempt.
func (p *ReconnectPolicy) Next() time.Duration {
	return p.b.NextBackOff()
}

// Reset restarts the delay sequence after a successful connection.
func (p *ReconnectPolicy) Reset() {
	p.b.Reset()
}

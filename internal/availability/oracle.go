// Package availability provides the Availability Oracle collaborator: a
// hint provider mapping instance -> {UP, UNKNOWN, DOWN}, used only to order
// replica fetch attempts, never to make them fail outright.
package availability

import (
	"sync"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
)

// Oracle is the data-layer supplier contract's getAvailability collaborator.
// The default hint for any instance never explicitly reported is UNKNOWN.
type Oracle interface {
	Availability(nodeName string) data.AvailabilityHint
}

// StaticOracle is a fixed-table Oracle, useful for tests and for data
// layers that source availability from a one-shot health check rather than
// continuous gossip.
type StaticOracle struct {
	mu    sync.RWMutex
	hints map[string]data.AvailabilityHint
}

func NewStaticOracle(hints map[string]data.AvailabilityHint) *StaticOracle {
	o := &StaticOracle{hints: map[string]data.AvailabilityHint{}}
	for k, v := range hints {
		o.hints[k] = v
	}
	return o
}

func (o *StaticOracle) Availability(nodeName string) data.AvailabilityHint {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if h, ok := o.hints[nodeName]; ok {
		return h
	}
	return data.Unknown
}

func (o *StaticOracle) Set(nodeName string, hint data.AvailabilityHint) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hints[nodeName] = hint
}

var _ Oracle = (*StaticOracle)(nil)

package availability

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/memberlist"
	"go.uber.org/zap"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
)

// GossipConfig configures the memberlist-backed Oracle, following the
// teacher's GossipService configuration surface.
type GossipConfig struct {
	BindPort       int
	SeedNodes      []string
	GossipInterval time.Duration
	ProbeTimeout   time.Duration
	ProbeInterval  time.Duration
}

// nodeHealth is the payload gossiped between instances: a self-reported
// availability hint plus a heartbeat timestamp. The timestamp is recorded
// but not consulted; a stale heartbeat does not change an instance's hint.
type nodeHealth struct {
	NodeName string              `json:"node_name"`
	Hint     data.AvailabilityHint `json:"hint"`
	SeenAt   int64               `json:"seen_at"`
}

// GossipOracle turns memberlist join/leave/health events into availability
// hints. A node that has joined and reports healthy is UP; a node that has
// explicitly left or failed a probe is DOWN; anything never heard from is
// UNKNOWN, matching the oracle's documented default.
type GossipOracle struct {
	mu       sync.RWMutex
	hints    map[string]data.AvailabilityHint
	self     nodeHealth
	ml       *memberlist.Memberlist
	log      *zap.Logger
}

// NewGossipOracle starts a memberlist instance under the given identity and
// joins the configured seeds, following NewGossipService's construction
// order exactly: build config, set delegates, create, then join.
func NewGossipOracle(cfg GossipConfig, nodeName string, log *zap.Logger) (*GossipOracle, error) {
	if log == nil {
		log = zap.NewNop()
	}
	o := &GossipOracle{
		hints: map[string]data.AvailabilityHint{},
		self:  nodeHealth{NodeName: nodeName, Hint: data.Up, SeenAt: time.Now().Unix()},
		log:   log,
	}

	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = nodeName
	mlConfig.BindPort = cfg.BindPort
	if cfg.GossipInterval > 0 {
		mlConfig.GossipInterval = cfg.GossipInterval
	}
	if cfg.ProbeTimeout > 0 {
		mlConfig.ProbeTimeout = cfg.ProbeTimeout
	}
	if cfg.ProbeInterval > 0 {
		mlConfig.ProbeInterval = cfg.ProbeInterval
	}
	mlConfig.Delegate = o
	mlConfig.Events = &gossipEvents{oracle: o}

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, err
	}
	o.ml = ml

	if len(cfg.SeedNodes) > 0 {
		if _, err := ml.Join(cfg.SeedNodes); err != nil {
			log.Warn("failed to join some seed nodes", zap.Error(err))
		}
	}
	return o, nil
}

func (o *GossipOracle) Availability(nodeName string) data.AvailabilityHint {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if h, ok := o.hints[nodeName]; ok {
		return h
	}
	return data.Unknown
}

func (o *GossipOracle) setHint(nodeName string, hint data.AvailabilityHint) {
	o.mu.Lock()
	o.hints[nodeName] = hint
	o.mu.Unlock()
}

func (o *GossipOracle) Shutdown() error {
	return o.ml.Shutdown()
}

// NodeMeta implements memberlist.Delegate.
func (o *GossipOracle) NodeMeta(limit int) []byte {
	b, _ := json.Marshal(o.self)
	if len(b) > limit {
		return b[:limit]
	}
	return b
}

// NotifyMsg implements memberlist.Delegate.
func (o *GossipOracle) NotifyMsg(b []byte) {
	var h nodeHealth
	if err := json.Unmarshal(b, &h); err != nil {
		o.log.Warn("failed to unmarshal gossip health payload", zap.Error(err))
		return
	}
	o.setHint(h.NodeName, h.Hint)
}

// GetBroadcasts implements memberlist.Delegate.
func (o *GossipOracle) GetBroadcasts(overhead, limit int) [][]byte { return nil }

// LocalState implements memberlist.Delegate.
func (o *GossipOracle) LocalState(join bool) []byte {
	b, _ := json.Marshal(o.self)
	return b
}

// MergeRemoteState implements memberlist.Delegate.
func (o *GossipOracle) MergeRemoteState(buf []byte, join bool) {}

var _ memberlist.Delegate = (*GossipOracle)(nil)
var _ Oracle = (*GossipOracle)(nil)

// gossipEvents handles memberlist membership events, following
// GossipEventDelegate's structure.
type gossipEvents struct {
	oracle *GossipOracle
}

func (d *gossipEvents) NotifyJoin(node *memberlist.Node) {
	d.oracle.setHint(node.Name, data.Up)
	d.oracle.log.Info("instance joined", zap.String("node", node.Name), zap.String("addr", node.Addr.String()))
}

func (d *gossipEvents) NotifyLeave(node *memberlist.Node) {
	d.oracle.setHint(node.Name, data.Down)
	d.oracle.log.Info("instance left", zap.String("node", node.Name))
}

func (d *gossipEvents) NotifyUpdate(node *memberlist.Node) {
	d.oracle.log.Debug("instance updated", zap.String("node", node.Name))
}

var _ memberlist.EventDelegate = (*gossipEvents)(nil)

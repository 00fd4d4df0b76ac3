// Command bulkreader is a reference binary demonstrating the engine-facing
// API end to end: it builds a schema, an in-memory ring, a static
// availability oracle, and an in-process listInstance stand-in, then
// fetches every compute-engine partition's overlapping tables.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cassandra-analytics/bulk-reader/internal/availability"
	"github.com/cassandra-analytics/bulk-reader/internal/config"
	"github.com/cassandra-analytics/bulk-reader/internal/data"
	"github.com/cassandra-analytics/bulk-reader/internal/engine"
	"github.com/cassandra-analytics/bulk-reader/internal/executor"
	"github.com/cassandra-analytics/bulk-reader/internal/metrics"
	"github.com/cassandra-analytics/bulk-reader/internal/replica"
	"github.com/cassandra-analytics/bulk-reader/internal/schema"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
	"golang.org/x/time/rate"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("no config file found, using defaults", zap.Error(err))
		cfg = defaultConfig()
	}

	stats := metrics.NewStats(cfg.JobID)

	rf := data.NewNetworkTopologyReplicationFactor(map[string]int{"dc1": 3})
	partitioner := token.Murmur3Partitioner{}

	builder := schema.NewBuilder(schema.RegexParser{}, schema.NewRegistry(), logger)
	sch, err := builder.Build(
		`CREATE TABLE demo_ks.events (id uuid PRIMARY KEY, payload text, tags set<text>)`,
		"demo_ks", rf, partitioner, nil,
	)
	if err != nil {
		logger.Fatal("failed to build schema", zap.Error(err))
	}

	ring := buildDemoRing(partitioner, rf)
	oracle := availability.NewStaticOracle(map[string]data.AvailabilityHint{
		"node-1": data.Up, "node-2": data.Up, "node-3": data.Down,
	})
	pool := executor.NewPool[[]replica.SSTable](executor.Config{
		Name: "bulkreader", MaxWorkers: cfg.Executor.MaxWorkers, QueueSize: cfg.Executor.QueueSize, Logger: logger,
	})
	defer pool.Stop(5 * time.Second)

	dl := &demoDataLayer{ring: ring, pool: pool, oracle: oracle, stats: stats}

	pdl, err := engine.NewPartitionedDataLayer(dl, data.LocalQuorum, "dc1", sch, 4, replica.CoordinatorConfig{
		PerReplicaDeadline: cfg.Fetch.PerReplicaTimeout,
		FailoverLimiter:    rate.NewLimiter(rate.Limit(cfg.Fetch.FailoverRatePerSec), cfg.Fetch.FailoverBurst),
	}, logger)
	if err != nil {
		logger.Fatal("failed to build partitioned data layer", zap.Error(err))
	}

	ctx := context.Background()
	for p := 0; p < pdl.PartitionCount(); p++ {
		result, err := pdl.SSTables(ctx, p, nil)
		if err != nil {
			logger.Error("partition failed", zap.Int("partition_id", p), zap.Error(err))
			continue
		}
		logger.Info("partition fetched", zap.Int("partition_id", p), zap.Int("tables", len(result.Tables)))
	}
}

func initLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func defaultConfig() *config.Config {
	return &config.Config{
		JobID:    "bulk-reader-demo",
		Executor: config.ExecutorConfig{MaxWorkers: 8, QueueSize: 64},
		Fetch:    config.FetchConfig{PerReplicaTimeout: 10 * time.Second, FailoverRatePerSec: 5, FailoverBurst: 5},
		Logging:  config.LoggingConfig{Level: "info", Format: "json"},
	}
}

// buildDemoRing lays out a 3-node, single-DC ring with two sub-ranges for
// illustration; a real deployment would learn this from the cluster.
func buildDemoRing(p token.Partitioner, rf data.ReplicationFactor) *data.Ring {
	nodes := []data.Instance{
		data.NewInstance("node-1", "", "dc1"),
		data.NewInstance("node-2", "", "dc1"),
		data.NewInstance("node-3", "", "dc1"),
	}
	mid := p.MinToken().Midpoint(p.MaxToken())
	ring, err := data.NewRing(p, rf, []data.SubRangeSpec{
		{Range: token.ClosedOpen(p.MinToken(), mid), Replicas: nodes},
		{Range: token.Closed(mid, p.MaxToken()), Replicas: nodes},
	})
	if err != nil {
		panic(err)
	}
	return ring
}

// demoDataLayer is a minimal, in-memory DataLayer: it fabricates table
// handles rather than calling out over the network, so the binary runs
// standalone without a live cluster.
type demoDataLayer struct {
	ring   *data.Ring
	pool   *executor.Pool[[]replica.SSTable]
	oracle *availability.StaticOracle
	stats  *metrics.Stats
}

func (d *demoDataLayer) Ring() *data.Ring { return d.ring }
func (d *demoDataLayer) TokenPartitioner() token.Partitioner { return d.ring.Partitioner() }
func (d *demoDataLayer) ExecutorService() *executor.Pool[[]replica.SSTable] { return d.pool }
func (d *demoDataLayer) FilterNonIntersectingSSTables() bool { return true }
func (d *demoDataLayer) Stats() *metrics.Stats { return d.stats }

func (d *demoDataLayer) GetAvailability(inst data.Instance) data.AvailabilityHint {
	return d.oracle.Availability(inst.NodeName)
}

func (d *demoDataLayer) ListInstance(_ context.Context, partitionID int, r token.Range, instance data.Instance) ([]replica.SSTable, error) {
	return []replica.SSTable{
		{Instance: instance, Path: fmt.Sprintf("/data/%s/p%d-unrepaired.db", instance.NodeName, partitionID), Repair: replica.Unrepaired},
	}, nil
}

var _ engine.DataLayer = (*demoDataLayer)(nil)

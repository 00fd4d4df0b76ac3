package replica

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"
	"github.com/cassandra-analytics/bulk-reader/internal/executor"
	"github.com/cassandra-analytics/bulk-reader/internal/metrics"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// CoordinatorConfig bounds the coordinator's per-replica deadline and paces
// backup promotions so a thundering herd of failovers does not hammer the
// remaining replicas.
type CoordinatorConfig struct {
	PerReplicaDeadline time.Duration
	FailoverLimiter    *rate.Limiter
}

// Coordinator drives Fetcher over a ReplicaSet's primaries, promoting
// backups on failure, and merges the surviving fetches' table sets under
// the repair-primary rule from §4.I.
type Coordinator struct {
	pool   *executor.Pool[[]SSTable]
	lister Lister
	stats  *metrics.Stats
	log    *zap.Logger
	cfg    CoordinatorConfig
}

func NewCoordinator(pool *executor.Pool[[]SSTable], lister Lister, stats *metrics.Stats, log *zap.Logger, cfg CoordinatorConfig) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FailoverLimiter == nil {
		cfg.FailoverLimiter = rate.NewLimiter(rate.Limit(5), 5)
	}
	return &Coordinator{pool: pool, lister: lister, stats: stats, log: log, cfg: cfg}
}

// Result is the coordinator's output: the merged set of table handles
// across all surviving primaries, with no inter-replica ordering guarantee
// (§4.I: "the coordinator only guarantees the set of tables delivered").
type Result struct {
	Tables  []SSTable
	Set     *Set
	Skipped bool // true when the coordinator completed via Cancelled, not success
}

// Run drives set's primaries to completion with failover, per §4.I's
// protocol: launch one fetch per primary, on failure promote a backup and
// retry, success once every current primary has completed, ReadFailure if
// the backup pool is exhausted with a primary still failing. Cancellation
// of ctx causes a clean, non-fatal Cancelled completion.
func (c *Coordinator) Run(ctx context.Context, set *Set, r token.Range) (*Result, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var merged []SSTable
	attempted := map[string]bool{}

	var runOne func(inst data.Instance) error
	runOne = func(inst data.Instance) error {
		mu.Lock()
		attempted[inst.NodeName] = true
		mu.Unlock()
		start := time.Now()

		future, err := SingleFetch(c.pool, c.lister, gctx, set.PartitionID, r, inst, c.cfg.PerReplicaDeadline)
		if err != nil {
			return c.onFailure(gctx, set, r, inst, err, &mu, runOne)
		}

		select {
		case <-gctx.Done():
			return nil
		case <-future.Done():
		}
		tables, fetchErr := future.Get()
		if c.stats != nil {
			outcome := "success"
			if fetchErr != nil {
				outcome = "failure"
			}
			c.stats.ObserveFetch(outcome, time.Since(start))
		}
		if fetchErr != nil {
			return c.onFailure(gctx, set, r, inst, fetchErr, &mu, runOne)
		}

		mu.Lock()
		merged = append(merged, selectTables(set, inst, tables)...)
		mu.Unlock()
		return nil
	}

	for _, inst := range set.Primary {
		inst := inst
		g.Go(func() error { return runOne(inst) })
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			if c.stats != nil {
				c.stats.CancellationsTotal.Inc()
			}
			return &Result{Set: set, Skipped: true}, bulkerrors.Cancelled(set.PartitionID)
		}
		return nil, err
	}

	if ctx.Err() != nil {
		if c.stats != nil {
			c.stats.CancellationsTotal.Inc()
		}
		return &Result{Set: set, Skipped: true}, bulkerrors.Cancelled(set.PartitionID)
	}

	return &Result{Tables: merged, Set: set}, nil
}

// onFailure promotes a backup (availability order, since Backup is already
// sorted by the planner) and retries; if no backup remains, it raises
// ReadFailure naming every replica attempted.
func (c *Coordinator) onFailure(ctx context.Context, set *Set, r token.Range, failed data.Instance, cause error, mu *sync.Mutex, runOne func(data.Instance) error) error {
	c.log.Warn("replica fetch failed, attempting failover",
		zap.Int("partition_id", set.PartitionID), zap.String("instance", failed.NodeName), zap.Error(cause))

	mu.Lock()
	next, ok := set.PromoteBackup()
	mu.Unlock()
	if !ok {
		attempted := []string{failed.NodeName}
		for _, p := range set.Primary {
			attempted = append(attempted, p.NodeName)
		}
		if c.stats != nil {
			c.stats.ReadFailuresTotal.Inc()
		}
		return bulkerrors.ReadFailure(set.PartitionID, r.String(), attempted)
	}
	if c.stats != nil {
		c.stats.FailoversTotal.Inc()
	}
	if err := c.cfg.FailoverLimiter.Wait(ctx); err != nil {
		return nil
	}
	return runOne(next)
}

// selectTables applies the repair-primary rule from §4.I: a replica that
// IsRepairPrimary reports true for contributes both repaired and unrepaired
// tables; every other replica contributes only its unrepaired tables, to
// avoid double-counting repaired data that is, by construction, identical
// across replicas. IsRepairPrimary itself covers the designated
// repairPrimary, every replica when no single repairPrimary was designated,
// and any backup promoted via failover.
func selectTables(set *Set, inst data.Instance, tables []SSTable) []SSTable {
	if set.IsRepairPrimary(inst) {
		return tables
	}
	var out []SSTable
	for _, t := range tables {
		if t.Repair != Repaired {
			out = append(out, t)
		}
	}
	return out
}

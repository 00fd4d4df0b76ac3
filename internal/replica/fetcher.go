package replica

import (
	"context"
	"time"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	"github.com/cassandra-analytics/bulk-reader/internal/executor"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// SSTableRepairState flags whether a table handle is repaired, unrepaired,
// or the replica could not report which.
type SSTableRepairState int

const (
	Unrepaired SSTableRepairState = iota
	Repaired
	RepairUnknown
)

// SSTable is an opened handle to a sorted-string table on a replica,
// overlapping the range a fetch was issued for. Byte decoding of its
// contents is out of scope (§1); this is purely the coordination-level
// handle.
type SSTable struct {
	Instance data.Instance
	Path     string
	Repair   SSTableRepairState
}

// Lister is the data-layer supplier contract's listInstance collaborator:
// asynchronously lists sorted-string tables at instance overlapping r for
// the given partition. Implementations must honor ctx cancellation at
// their I/O boundary and never block the caller directly — SingleFetch
// dispatches them onto the blocking-I/O executor.
type Lister interface {
	ListInstance(ctx context.Context, partitionID int, r token.Range, instance data.Instance) ([]SSTable, error)
}

// SingleFetch runs one replica's listInstance call on pool, returning a
// Future of its table handles. The task inherits ctx so a per-replica
// deadline set by the caller is observed by the executor-scheduled work
// itself, not just by the caller waiting on the future.
func SingleFetch(pool *executor.Pool[[]SSTable], lister Lister, ctx context.Context, partitionID int, r token.Range, instance data.Instance, deadline time.Duration) (*executor.Future[[]SSTable], error) {
	taskCtx := ctx
	cancel := func() {}
	if deadline > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, deadline)
	}
	future, err := pool.Submit(executor.Task[[]SSTable]{
		ID:      instance.NodeName,
		Context: taskCtx,
		Fn: func(taskCtx context.Context) ([]SSTable, error) {
			return lister.ListInstance(taskCtx, partitionID, r, instance)
		},
	})
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		<-future.Done()
		cancel()
	}()
	return future, nil
}

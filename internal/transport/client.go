package transport

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	bulkerrors "github.com/cassandra-analytics/bulk-reader/internal/errors"
	"github.com/cassandra-analytics/bulk-reader/internal/replica"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

// transientRetries bounds how many times ListInstance retries a single RPC
// attempt that failed with codes.Unavailable before surfacing the error to
// the caller. This is deliberately separate from, and much smaller than,
// the coordinator's backup-promotion failover (internal/replica): it
// absorbs a transient blip on one connection, not a replica that is really
// down.
const transientRetries = 3

// Client implements replica.Lister over the reference listInstance RPC,
// following the teacher clients' host/port/conn/logger shape.
type Client struct {
	host string
	port int
	conn *grpc.ClientConn
	log  *zap.Logger
}

// NewClient dials the given replica's listInstance endpoint.
func NewClient(host string, port int, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to replica at %s: %w", addr, err)
	}
	return &Client{host: host, port: port, conn: conn, log: log}, nil
}

var _ replica.Lister = (*Client)(nil)

// ListInstance implements replica.Lister by invoking the reference
// listInstance RPC with the JSON codec content subtype.
func (c *Client) ListInstance(ctx context.Context, partitionID int, r token.Range, instance data.Instance) ([]replica.SSTable, error) {
	req := &ListInstanceRequest{
		PartitionID:    partitionID,
		LowerToken:     tokenToString(r.Lower),
		UpperToken:     tokenToString(r.Upper),
		LowerInclusive: r.LowerInclusive,
		UpperInclusive: r.UpperInclusive,
		NodeName:       instance.NodeName,
	}
	resp := new(ListInstanceResponse)

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), transientRetries), ctx)
	attempt := func() error {
		resp = new(ListInstanceResponse)
		invokeErr := c.conn.Invoke(ctx, listInstanceRPC, req, resp, grpc.CallContentSubtype(jsonCodecName))
		if invokeErr == nil {
			return nil
		}
		if status.Code(invokeErr) == codes.Unavailable {
			c.log.Debug("transient listInstance failure, retrying", zap.String("replica", instance.NodeName), zap.Error(invokeErr))
			return invokeErr
		}
		return backoff.Permanent(invokeErr)
	}

	if err := backoff.Retry(attempt, bo); err != nil {
		return nil, err
	}
	if resp.ErrorMessage != "" {
		return nil, bulkerrors.Wrap(fmt.Errorf(resp.ErrorMessage), "replica "+instance.NodeName+" listInstance failed")
	}

	tables := make([]replica.SSTable, len(resp.Tables))
	for i, h := range resp.Tables {
		tables[i] = replica.SSTable{Instance: instance, Path: h.Path, Repair: replica.SSTableRepairState(h.Repair)}
	}
	return tables, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

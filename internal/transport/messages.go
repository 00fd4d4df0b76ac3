package transport

import "github.com/cassandra-analytics/bulk-reader/internal/replica"

// ListInstanceRequest is the wire request for the listInstance RPC: a
// partition id, its token range (as decimal strings, since JSON has no
// big-integer type), and the target instance's node name.
type ListInstanceRequest struct {
	PartitionID    int    `json:"partition_id"`
	LowerToken     string `json:"lower_token"`
	UpperToken     string `json:"upper_token"`
	LowerInclusive bool   `json:"lower_inclusive"`
	UpperInclusive bool   `json:"upper_inclusive"`
	NodeName       string `json:"node_name"`
}

// SSTableHandle is the wire representation of one replica.SSTable.
type SSTableHandle struct {
	Path   string `json:"path"`
	Repair int    `json:"repair"`
}

// ListInstanceResponse is the wire response: the table handles found, or an
// error message if the listing failed on the server side.
type ListInstanceResponse struct {
	Tables       []SSTableHandle `json:"tables"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func toWireTables(tables []replica.SSTable) []SSTableHandle {
	out := make([]SSTableHandle, len(tables))
	for i, t := range tables {
		out[i] = SSTableHandle{Path: t.Path, Repair: int(t.Repair)}
	}
	return out
}

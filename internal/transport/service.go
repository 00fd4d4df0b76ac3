package transport

import (
	"context"

	"google.golang.org/grpc"

	"github.com/cassandra-analytics/bulk-reader/internal/data"
	"github.com/cassandra-analytics/bulk-reader/internal/replica"
	"github.com/cassandra-analytics/bulk-reader/internal/token"
)

const (
	serviceName     = "bulkreader.ListInstance"
	listInstanceRPC = "/bulkreader.ListInstance/List"
)

// Server is the interface a real listInstance implementation satisfies on
// the wire side; RegisterServer plugs it into grpc via serviceDesc.
type Server interface {
	replica.Lister
}

func listInstanceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ListInstanceRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return callListInstance(srv.(Server), ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listInstanceRPC}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return callListInstance(srv.(Server), ctx, req.(*ListInstanceRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func callListInstance(s Server, ctx context.Context, req *ListInstanceRequest) (*ListInstanceResponse, error) {
	lower, ok1 := new(bigIntString).parse(req.LowerToken)
	upper, ok2 := new(bigIntString).parse(req.UpperToken)
	if !ok1 || !ok2 {
		return &ListInstanceResponse{ErrorMessage: "malformed token bounds"}, nil
	}
	r := token.Range{
		Lower:          lower,
		Upper:          upper,
		LowerInclusive: req.LowerInclusive,
		UpperInclusive: req.UpperInclusive,
	}
	instance := data.NewInstance(req.NodeName, "", "")
	tables, err := s.ListInstance(ctx, req.PartitionID, r, instance)
	if err != nil {
		return &ListInstanceResponse{ErrorMessage: err.Error()}, nil
	}
	return &ListInstanceResponse{Tables: toWireTables(tables)}, nil
}

// serviceDesc is the hand-registered ServiceDesc standing in for what
// protoc-gen-go-grpc would otherwise generate.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "List", Handler: listInstanceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bulkreader/listinstance.proto",
}

// RegisterServer wires impl into gs under the hand-registered ServiceDesc.
func RegisterServer(gs *grpc.Server, impl Server) {
	gs.RegisterService(&serviceDesc, impl)
}

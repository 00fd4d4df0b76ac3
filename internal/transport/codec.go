// Package transport is the reference implementation of the data-layer
// supplier's listInstance over the network: a grpc client/server pair using
// a hand-registered ServiceDesc and a JSON wire codec instead of generated
// protobuf messages. Hand-authoring .pb.go files would require fabricating
// raw FileDescriptorProto bytes with no protoc available in this build,
// risking a panic in protoimpl.TypeBuilder.Build() at init(); grpc's
// pluggable-codec extension point avoids that while still exercising
// google.golang.org/grpc directly. The core replica-selection and
// coordination logic never imports this package — it only consumes the
// abstract Lister interface (internal/replica.Lister).
package transport

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is registered with grpc's encoding package and selected per
// call via grpc.CallContentSubtype, so ordinary protobuf-based services
// sharing a process are unaffected.
const jsonCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

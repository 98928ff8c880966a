package proxyclient

import "encoding/json"

// jsonCodec lets GRPCProxy invoke a service without protoc-generated
// stubs: the teacher's own FSM encodes commands with encoding/json
// rather than protobuf (pkg/manager/fsm.go), and this reference
// transport follows the same choice rather than requiring a .proto
// build step this repo cannot run. It implements grpc/encoding.Codec
// and is installed per call via grpc.ForceCodec.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

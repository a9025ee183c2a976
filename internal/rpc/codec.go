package rpc

import (
	"fmt"

	gogoproto "github.com/gogo/protobuf/proto"
	"google.golang.org/grpc/encoding"
)

// gogoCodec marshals api/proto's hand-written messages with gogo/protobuf's
// reflection-based Marshal/Unmarshal. grpc-go's built-in "proto" codec
// expects the newer google.golang.org/protobuf ProtoReflect() interface,
// which these hand-written messages don't implement; registering this
// codec under the same name routes every call through gogo/protobuf
// instead, the same substitution real gogoproto-based services make.
type gogoCodec struct{}

func (gogoCodec) Name() string { return "proto" }

func (gogoCodec) Marshal(v interface{}) ([]byte, error) {
	msg, ok := v.(gogoproto.Message)
	if !ok {
		return nil, fmt.Errorf("rpc: %T does not implement gogo/protobuf proto.Message", v)
	}
	return gogoproto.Marshal(msg)
}

func (gogoCodec) Unmarshal(data []byte, v interface{}) error {
	msg, ok := v.(gogoproto.Message)
	if !ok {
		return fmt.Errorf("rpc: %T does not implement gogo/protobuf proto.Message", v)
	}
	return gogoproto.Unmarshal(data, msg)
}

func init() {
	encoding.RegisterCodec(gogoCodec{})
}

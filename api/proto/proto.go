package proto

import gogoproto "github.com/gogo/protobuf/proto"

// protoString matches the String() body protoc-gen-gogo emits for every
// message: delegate to the library's reflection-based text formatter
// instead of hand-rolling one per type.
func protoString(m gogoproto.Message) string {
	return gogoproto.CompactTextString(m)
}

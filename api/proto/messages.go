// Package proto holds the wire messages and gRPC service definition for the
// control plane (spec.md §6). These are hand-written in the shape
// protoc-gen-gogo would emit -- struct tags plus the three-method
// gogo/protobuf Message interface -- rather than generated, since this
// repository's build never shells out to protoc. gogo/protobuf's reflection
// based Marshal/Unmarshal works directly off these tags with no generated
// Marshal method required.
package proto

// Vip identifies a load-balanced virtual IP by address and port. Ip is the
// host-order uint32 form of the address (spec.md §6: "All IP/port fields
// carry host-order values"), not a dotted-quad string.
type Vip struct {
	Ip   uint32 `protobuf:"varint,1,opt,name=ip,proto3" json:"ip,omitempty"`
	Port uint32 `protobuf:"varint,2,opt,name=port,proto3" json:"port,omitempty"`
}

func (m *Vip) Reset()         { *m = Vip{} }
func (m *Vip) String() string { return protoString(m) }
func (*Vip) ProtoMessage()    {}

func (m *Vip) GetIp() uint32 {
	if m != nil {
		return m.Ip
	}
	return 0
}

func (m *Vip) GetPort() uint32 {
	if m != nil {
		return m.Port
	}
	return 0
}

// Target is one concrete backend a Vip can dispatch to, Daddr a host-order
// uint32 address like Vip.Ip. Ifindex is proto3-optional: a nil pointer
// (the field absent on the wire) means the control plane must resolve it
// itself via internal/routing before publishing the backend (spec.md §4.5),
// distinct from an explicit ifindex of 0.
type Target struct {
	Daddr   uint32  `protobuf:"varint,1,opt,name=daddr,proto3" json:"daddr,omitempty"`
	Dport   uint32  `protobuf:"varint,2,opt,name=dport,proto3" json:"dport,omitempty"`
	Ifindex *uint32 `protobuf:"varint,3,opt,name=ifindex,proto3,oneof" json:"ifindex,omitempty"`
}

func (m *Target) Reset()         { *m = Target{} }
func (m *Target) String() string { return protoString(m) }
func (*Target) ProtoMessage()    {}

func (m *Target) GetDaddr() uint32 {
	if m != nil {
		return m.Daddr
	}
	return 0
}

func (m *Target) GetDport() uint32 {
	if m != nil {
		return m.Dport
	}
	return 0
}

func (m *Target) GetIfindex() uint32 {
	if m != nil && m.Ifindex != nil {
		return *m.Ifindex
	}
	return 0
}

// Targets is the whole-list request body for Update: a Vip and every
// backend it should dispatch across, capped at MaxTargets (spec.md §6).
type Targets struct {
	Vip     *Vip      `protobuf:"bytes,1,opt,name=vip,proto3" json:"vip,omitempty"`
	Targets []*Target `protobuf:"bytes,2,rep,name=targets,proto3" json:"targets,omitempty"`
}

func (m *Targets) Reset()         { *m = Targets{} }
func (m *Targets) String() string { return protoString(m) }
func (*Targets) ProtoMessage()    {}

func (m *Targets) GetVip() *Vip {
	if m != nil {
		return m.Vip
	}
	return nil
}

func (m *Targets) GetTargets() []*Target {
	if m != nil {
		return m.Targets
	}
	return nil
}

// MaxTargets is the largest Targets.Targets slice an Update call accepts
// (spec.md §6); larger requests are rejected with ResourceExhausted before
// anything is written.
const MaxTargets = 128

// PodIp is the GetInterfaceIndex request: a host-order uint32 address whose
// route the control plane should resolve on the caller's behalf.
type PodIp struct {
	Ip uint32 `protobuf:"varint,1,opt,name=ip,proto3" json:"ip,omitempty"`
}

func (m *PodIp) Reset()         { *m = PodIp{} }
func (m *PodIp) String() string { return protoString(m) }
func (*PodIp) ProtoMessage()    {}

func (m *PodIp) GetIp() uint32 {
	if m != nil {
		return m.Ip
	}
	return 0
}

// InterfaceIndexConfirmation answers GetInterfaceIndex.
type InterfaceIndexConfirmation struct {
	Ifindex uint32 `protobuf:"varint,1,opt,name=ifindex,proto3" json:"ifindex,omitempty"`
}

func (m *InterfaceIndexConfirmation) Reset()         { *m = InterfaceIndexConfirmation{} }
func (m *InterfaceIndexConfirmation) String() string { return protoString(m) }
func (*InterfaceIndexConfirmation) ProtoMessage()    {}

// Confirmation is the generic Update/Delete acknowledgement.
type Confirmation struct {
	Confirmation string `protobuf:"bytes,1,opt,name=confirmation,proto3" json:"confirmation,omitempty"`
}

func (m *Confirmation) Reset()         { *m = Confirmation{} }
func (m *Confirmation) String() string { return protoString(m) }
func (*Confirmation) ProtoMessage()    {}

package proto

import (
	"context"

	"google.golang.org/grpc"
)

// BackendsServer is the control-plane RPC surface (spec.md §4.6, §6):
// resolve an interface index, publish a VIP's whole backend list, and
// delete a VIP.
type BackendsServer interface {
	GetInterfaceIndex(context.Context, *PodIp) (*InterfaceIndexConfirmation, error)
	Update(context.Context, *Targets) (*Confirmation, error)
	Delete(context.Context, *Vip) (*Confirmation, error)
}

// UnimplementedBackendsServer can be embedded to satisfy BackendsServer
// while only overriding the methods a given build needs, the same
// forward-compatibility shape protoc-gen-go-grpc generates.
type UnimplementedBackendsServer struct{}

func (UnimplementedBackendsServer) GetInterfaceIndex(context.Context, *PodIp) (*InterfaceIndexConfirmation, error) {
	return nil, errUnimplemented("GetInterfaceIndex")
}
func (UnimplementedBackendsServer) Update(context.Context, *Targets) (*Confirmation, error) {
	return nil, errUnimplemented("Update")
}
func (UnimplementedBackendsServer) Delete(context.Context, *Vip) (*Confirmation, error) {
	return nil, errUnimplemented("Delete")
}

func errUnimplemented(method string) error {
	return &unimplementedError{method}
}

type unimplementedError struct{ method string }

func (e *unimplementedError) Error() string { return "method not implemented: " + e.method }

// BackendsClient is the client side of BackendsServer.
type BackendsClient interface {
	GetInterfaceIndex(ctx context.Context, in *PodIp, opts ...grpc.CallOption) (*InterfaceIndexConfirmation, error)
	Update(ctx context.Context, in *Targets, opts ...grpc.CallOption) (*Confirmation, error)
	Delete(ctx context.Context, in *Vip, opts ...grpc.CallOption) (*Confirmation, error)
}

type backendsClient struct {
	cc grpc.ClientConnInterface
}

// NewBackendsClient wraps an established connection.
func NewBackendsClient(cc grpc.ClientConnInterface) BackendsClient {
	return &backendsClient{cc}
}

func (c *backendsClient) GetInterfaceIndex(ctx context.Context, in *PodIp, opts ...grpc.CallOption) (*InterfaceIndexConfirmation, error) {
	out := new(InterfaceIndexConfirmation)
	if err := c.cc.Invoke(ctx, "/blixt.Backends/GetInterfaceIndex", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *backendsClient) Update(ctx context.Context, in *Targets, opts ...grpc.CallOption) (*Confirmation, error) {
	out := new(Confirmation)
	if err := c.cc.Invoke(ctx, "/blixt.Backends/Update", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *backendsClient) Delete(ctx context.Context, in *Vip, opts ...grpc.CallOption) (*Confirmation, error) {
	out := new(Confirmation)
	if err := c.cc.Invoke(ctx, "/blixt.Backends/Delete", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Backends_GetInterfaceIndex_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PodIp)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendsServer).GetInterfaceIndex(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/blixt.Backends/GetInterfaceIndex"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BackendsServer).GetInterfaceIndex(ctx, req.(*PodIp))
	}
	return interceptor(ctx, in, info, handler)
}

func _Backends_Update_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Targets)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendsServer).Update(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/blixt.Backends/Update"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BackendsServer).Update(ctx, req.(*Targets))
	}
	return interceptor(ctx, in, info, handler)
}

func _Backends_Delete_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Vip)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendsServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/blixt.Backends/Delete"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BackendsServer).Delete(ctx, req.(*Vip))
	}
	return interceptor(ctx, in, info, handler)
}

// BackendsServiceDesc is the grpc.ServiceDesc protoc-gen-go-grpc would have
// generated for the Backends service.
var BackendsServiceDesc = grpc.ServiceDesc{
	ServiceName: "blixt.Backends",
	HandlerType: (*BackendsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetInterfaceIndex", Handler: _Backends_GetInterfaceIndex_Handler},
		{MethodName: "Update", Handler: _Backends_Update_Handler},
		{MethodName: "Delete", Handler: _Backends_Delete_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "backends.proto",
}

// RegisterBackendsServer registers srv with s, the same call a generated
// backends_grpc.pb.go would expose.
func RegisterBackendsServer(s grpc.ServiceRegistrar, srv BackendsServer) {
	s.RegisterService(&BackendsServiceDesc, srv)
}

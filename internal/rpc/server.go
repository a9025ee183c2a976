// Package rpc implements the Backends gRPC service (spec.md §4.6, §6):
// the only way the control plane ever touches BACKENDS, GATEWAY_INDEXES and
// LB_CONNECTIONS. Server shape (constructor loading TLS material, Start/Stop
// lifecycle, proto<->internal conversion helpers) is modeled on
// cuemby-warren's pkg/api/server.go.
package rpc

import (
	"context"
	"fmt"
	"net"
	"sync"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware/v2"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiproto "github.com/kubernetes-sigs/blixt/api/proto"
	"github.com/kubernetes-sigs/blixt/internal/dataplane"
	"github.com/kubernetes-sigs/blixt/internal/dataplane/bpfmaps"
	"github.com/kubernetes-sigs/blixt/internal/errs"
	"github.com/kubernetes-sigs/blixt/internal/log"
	"github.com/kubernetes-sigs/blixt/internal/routing"
)

var logger = log.For("rpc")

// Server implements apiproto.BackendsServer against a Tables instance.
// mu serializes Update/Delete so the whole-list-replace-then-cursor-reset
// sequence (spec.md §4.6) and the orphan purge (§9) never interleave with
// another write.
type Server struct {
	apiproto.UnimplementedBackendsServer

	mu       sync.Mutex
	tables   *bpfmaps.Tables
	resolver routing.Resolver
	grpc     *grpc.Server
}

// NewServer builds a Server. opts configures the transport (TLS mode);
// pass nil for an unauthenticated listener, matching spec.md §6's "none"
// mode.
func NewServer(tables *bpfmaps.Tables, resolver routing.Resolver, opts *TLSOptions) (*Server, error) {
	s := &Server{tables: tables, resolver: resolver}

	serverOpts, err := opts.grpcServerOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}
	serverOpts = append(serverOpts,
		grpc.ChainUnaryInterceptor(grpc_middleware.ChainUnaryServer(grpc_prometheus.UnaryServerInterceptor)),
	)

	s.grpc = grpc.NewServer(serverOpts...)
	apiproto.RegisterBackendsServer(s.grpc, s)
	grpc_prometheus.Register(s.grpc)

	return s, nil
}

// Start listens on addr and blocks serving until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: listen on %s: %v", errs.ErrTransport, addr, err)
	}
	logger.WithField("addr", addr).Info("rpc server listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight RPCs and shuts the server down.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

// GetInterfaceIndex resolves the outbound interface for a pod address.
func (s *Server) GetInterfaceIndex(ctx context.Context, req *apiproto.PodIp) (*apiproto.InterfaceIndexConfirmation, error) {
	ip := uint32ToIP(req.GetIp())

	ifindex, err := s.resolver.ResolveInterface(ip)
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "resolve interface for %s: %v", ip, err)
	}

	return &apiproto.InterfaceIndexConfirmation{Ifindex: uint32(ifindex)}, nil
}

// Update whole-list-replaces a VIP's backend set (spec.md §9's Open
// Question, resolved in favor of replace-not-patch): the new BackendList is
// published first, then the round-robin cursor is reset to 0 so the next
// dispatch starts clean against the new list rather than risk reusing a
// cursor position that belonged to a different backend count.
func (s *Server) Update(ctx context.Context, req *apiproto.Targets) (*apiproto.Confirmation, error) {
	if req.GetVip() == nil {
		return nil, status.Error(codes.InvalidArgument, "vip is required")
	}
	if len(req.GetTargets()) > apiproto.MaxTargets {
		return nil, status.Errorf(codes.ResourceExhausted, "update carries %d targets, max is %d", len(req.GetTargets()), apiproto.MaxTargets)
	}

	key := dataplane.BackendKey{IP: req.Vip.GetIp(), Port: req.Vip.GetPort()}

	var list dataplane.BackendList
	for i, target := range req.GetTargets() {
		daddr := target.GetDaddr()

		ifindex := target.Ifindex
		var resolvedIfindex uint32
		if ifindex == nil {
			resolved, err := s.resolver.ResolveInterface(uint32ToIP(daddr))
			if err != nil {
				return nil, status.Errorf(codes.FailedPrecondition, "resolve interface for target %s: %v", uint32ToIP(daddr), err)
			}
			resolvedIfindex = uint32(resolved)
		} else {
			resolvedIfindex = *ifindex
		}

		list.Backends[i] = dataplane.Backend{
			DAddr:   daddr,
			DPort:   target.GetDport(),
			IfIndex: uint16(resolvedIfindex),
		}
	}
	list.Len = uint16(len(req.GetTargets()))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tables.Backends.Upsert(key, list); err != nil {
		return nil, mapTableErr(err)
	}
	if err := s.tables.GatewayIndexes.Upsert(key, dataplane.GatewayIndex{Cursor: 0}); err != nil {
		return nil, mapTableErr(err)
	}

	logger.WithField("vip", uint32ToIP(req.Vip.GetIp())).WithField("count", list.Len).Info("updated backends")
	return &apiproto.Confirmation{Confirmation: "update applied"}, nil
}

// Delete removes a VIP's backend set and purges every LB_CONNECTIONS entry
// still pinned to one of its former backends (spec.md §9's other Open
// Question, resolved in favor of purging rather than waiting for the flow
// to idle out on its own).
func (s *Server) Delete(ctx context.Context, req *apiproto.Vip) (*apiproto.Confirmation, error) {
	key := dataplane.BackendKey{IP: req.GetIp(), Port: req.GetPort()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tables.Backends.Delete(key); err != nil {
		return nil, mapTableErr(err)
	}
	if err := s.tables.GatewayIndexes.Delete(key); err != nil {
		return nil, mapTableErr(err)
	}
	if err := s.tables.PurgeConnectionsFor(key); err != nil {
		return nil, mapTableErr(err)
	}

	logger.WithField("vip", uint32ToIP(req.GetIp())).Info("deleted backends")
	return &apiproto.Confirmation{Confirmation: "delete applied"}, nil
}

func mapTableErr(err error) error {
	switch {
	case err == errs.ErrResourceExhausted:
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// uint32ToIP renders a host-order uint32 address (the wire form every
// proto message in this package uses) as a net.IP for internal/routing and
// for log messages.
func uint32ToIP(ip uint32) net.IP {
	return net.IPv4(byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))
}

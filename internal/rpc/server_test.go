package rpc

import (
	"context"
	"fmt"
	"net"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiproto "github.com/kubernetes-sigs/blixt/api/proto"
	"github.com/kubernetes-sigs/blixt/internal/dataplane"
	"github.com/kubernetes-sigs/blixt/internal/dataplane/bpfmaps"
)

const (
	vipIPTest  uint32 = 0x0a000001 // 10.0.0.1
	backend1IP uint32 = 0x0a00000a // 10.0.0.10
	backend2IP uint32 = 0x0a00000b // 10.0.0.11
	podIPTest  uint32 = 0x0a000005 // 10.0.0.5
)

func ptrUint32(v uint32) *uint32 { return &v }

type stubResolver struct {
	ifindex int
	err     error
}

func (s stubResolver) ResolveInterface(ip net.IP) (int, error) {
	return s.ifindex, s.err
}

func newTestServer(t *testing.T) (*Server, *bpfmaps.Tables) {
	t.Helper()
	tables := bpfmaps.NewMemoryTables()
	srv, err := NewServer(tables, stubResolver{ifindex: 7}, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, tables
}

func TestUpdatePublishesBackendsAndResetsCursor(t *testing.T) {
	srv, tables := newTestServer(t)

	req := &apiproto.Targets{
		Vip: &apiproto.Vip{Ip: vipIPTest, Port: 80},
		Targets: []*apiproto.Target{
			{Daddr: backend1IP, Dport: 8080},
			{Daddr: backend2IP, Dport: 8080, Ifindex: ptrUint32(3)},
		},
	}

	if _, err := srv.Update(context.Background(), req); err != nil {
		t.Fatalf("Update: %v", err)
	}

	key := dataplane.BackendKey{IP: vipIPTest, Port: 80}
	list, ok, err := tables.Backends.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("backend list not published: ok=%v err=%v", ok, err)
	}
	if list.Len != 2 {
		t.Fatalf("expected 2 backends, got %d", list.Len)
	}
	if list.Backends[0].IfIndex != 7 {
		t.Fatalf("expected unresolved ifindex to be filled from resolver, got %d", list.Backends[0].IfIndex)
	}
	if list.Backends[1].IfIndex != 3 {
		t.Fatalf("expected explicit ifindex to be preserved, got %d", list.Backends[1].IfIndex)
	}

	gw, ok, err := tables.GatewayIndexes.Lookup(key)
	if err != nil || !ok || gw.Cursor != 0 {
		t.Fatalf("expected cursor reset to 0, got gw=%+v ok=%v err=%v", gw, ok, err)
	}
}

func TestUpdateRejectsOversizedTargetList(t *testing.T) {
	srv, _ := newTestServer(t)

	targets := make([]*apiproto.Target, apiproto.MaxTargets+1)
	for i := range targets {
		targets[i] = &apiproto.Target{Daddr: backend1IP, Dport: 8080, Ifindex: ptrUint32(1)}
	}
	req := &apiproto.Targets{Vip: &apiproto.Vip{Ip: vipIPTest, Port: 80}, Targets: targets}

	_, err := srv.Update(context.Background(), req)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}
}

func TestUpdateRejectsMissingVip(t *testing.T) {
	srv, _ := newTestServer(t)
	req := &apiproto.Targets{Targets: []*apiproto.Target{{Daddr: backend1IP, Dport: 8080, Ifindex: ptrUint32(1)}}}
	_, err := srv.Update(context.Background(), req)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestUpdateWithExplicitZeroIfindexSkipsResolve(t *testing.T) {
	tables := bpfmaps.NewMemoryTables()
	srv, err := NewServer(tables, stubResolver{err: fmt.Errorf("resolver must not be called")}, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	req := &apiproto.Targets{
		Vip:     &apiproto.Vip{Ip: vipIPTest, Port: 80},
		Targets: []*apiproto.Target{{Daddr: backend1IP, Dport: 8080, Ifindex: ptrUint32(0)}},
	}
	if _, err := srv.Update(context.Background(), req); err != nil {
		t.Fatalf("Update: %v", err)
	}

	list, ok, err := tables.Backends.Lookup(dataplane.BackendKey{IP: vipIPTest, Port: 80})
	if err != nil || !ok {
		t.Fatalf("backend list not published: ok=%v err=%v", ok, err)
	}
	if list.Backends[0].IfIndex != 0 {
		t.Fatalf("expected explicit ifindex 0 to be preserved, got %d", list.Backends[0].IfIndex)
	}
}

func TestDeletePurgesOrphanedConnections(t *testing.T) {
	srv, tables := newTestServer(t)

	vip := &apiproto.Vip{Ip: vipIPTest, Port: 80}
	if _, err := srv.Update(context.Background(), &apiproto.Targets{
		Vip:     vip,
		Targets: []*apiproto.Target{{Daddr: backend1IP, Dport: 8080, Ifindex: ptrUint32(2)}},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	key := dataplane.BackendKey{IP: vipIPTest, Port: 80}
	client := dataplane.ClientKey{IP: 99, Port: 1234}
	if err := tables.Connections.Upsert(client, dataplane.LoadBalancerMapping{
		BackendKey: key,
		Backend:    dataplane.Backend{DAddr: backend1IP, DPort: 8080, IfIndex: 2},
	}); err != nil {
		t.Fatalf("seeding connection: %v", err)
	}

	if _, err := srv.Delete(context.Background(), vip); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok, _ := tables.Backends.Lookup(key); ok {
		t.Fatalf("backend list survived delete")
	}
	if _, ok, _ := tables.Connections.Lookup(client); ok {
		t.Fatalf("orphaned connection survived delete")
	}
}

func TestGetInterfaceIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.GetInterfaceIndex(context.Background(), &apiproto.PodIp{Ip: podIPTest})
	if err != nil {
		t.Fatalf("GetInterfaceIndex: %v", err)
	}
	if resp.Ifindex != 7 {
		t.Fatalf("expected ifindex 7, got %d", resp.Ifindex)
	}
}

func TestGetInterfaceIndexResolveFailure(t *testing.T) {
	tables := bpfmaps.NewMemoryTables()
	srv, err := NewServer(tables, stubResolver{err: fmt.Errorf("no route")}, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	_, err = srv.GetInterfaceIndex(context.Background(), &apiproto.PodIp{Ip: podIPTest})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Package bpf loads the compiled TC classifier programs (ingress.c,
// egress.c) and exposes their programs/maps as typed Go values, the same
// shape bpf2go's generated code would have -- but loaded at runtime from a
// path on disk via ebpf.LoadCollectionSpec rather than from bytes embedded
// at Go-compile time, since turning ingress.c/egress.c into ELF object
// files needs clang, a build step run separately from `go build`.
package bpf

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/cilium/ebpf"
)

// ObjectDir is where the clang-compiled classifier object files are
// installed. Overridable for tests that stage fixture objects elsewhere.
var ObjectDir = "/usr/lib/blixt/bpf"

// IngressObjects mirrors bpf/ingress.c's exported program and the three
// shared maps it declares (bpf/maps.h).
type IngressObjects struct {
	ClassifyIngress *ebpf.Program `ebpf:"classify_ingress"`
	Backends        *ebpf.Map     `ebpf:"BACKENDS"`
	GatewayIndexes  *ebpf.Map     `ebpf:"GATEWAY_INDEXES"`
	LbConnections   *ebpf.Map     `ebpf:"LB_CONNECTIONS"`
}

func (o *IngressObjects) Close() error {
	return closeAll(o.ClassifyIngress, o.Backends, o.GatewayIndexes, o.LbConnections)
}

// LoadIngressObjects loads ingress.o and assigns its program/maps into obj.
func LoadIngressObjects(obj *IngressObjects, opts *ebpf.CollectionOptions) error {
	return loadObjects(filepath.Join(ObjectDir, "ingress.o"), obj, opts)
}

// EgressObjects mirrors bpf/egress.c's exported program and the same three
// shared maps (redeclared there so egress.c can be compiled standalone;
// pinning resolves both copies to the identical kernel map).
type EgressObjects struct {
	ClassifyEgress *ebpf.Program `ebpf:"classify_egress"`
	Backends       *ebpf.Map     `ebpf:"BACKENDS"`
	GatewayIndexes *ebpf.Map     `ebpf:"GATEWAY_INDEXES"`
	LbConnections  *ebpf.Map     `ebpf:"LB_CONNECTIONS"`
}

func (o *EgressObjects) Close() error {
	return closeAll(o.ClassifyEgress, o.Backends, o.GatewayIndexes, o.LbConnections)
}

// LoadEgressObjects loads egress.o and assigns its program/maps into obj.
func LoadEgressObjects(obj *EgressObjects, opts *ebpf.CollectionOptions) error {
	return loadObjects(filepath.Join(ObjectDir, "egress.o"), obj, opts)
}

func loadObjects(path string, obj interface{}, opts *ebpf.CollectionOptions) error {
	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return fmt.Errorf("loading collection spec from %s: %w", path, err)
	}
	return spec.LoadAndAssign(obj, opts)
}

func closeAll(closers ...io.Closer) error {
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}

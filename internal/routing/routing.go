// Package routing resolves the outbound interface for a backend address,
// the one piece of information an Update RPC may omit (spec.md §4.5,
// §6): a Target whose IfIndex is unset is filled in here before the
// backend is published to BACKENDS.
package routing

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"

	"github.com/kubernetes-sigs/blixt/internal/errs"
	"github.com/kubernetes-sigs/blixt/internal/log"
)

var logger = log.For("routing")

// Resolver resolves the outbound interface for an address. internal/rpc
// depends on this interface rather than the package-level function so
// tests can supply a stub instead of needing a real routing table.
type Resolver interface {
	ResolveInterface(ip net.IP) (int, error)
}

// Netlink is the production Resolver, backed by a single netlink route
// query per call.
type Netlink struct{}

// ResolveInterface returns the index of the interface the kernel's routing
// table would send traffic to ip out of. A single netlink route query
// replaces the interface-enumeration loop a shell-based equivalent would
// need.
func (Netlink) ResolveInterface(ip net.IP) (int, error) {
	routes, err := netlink.RouteGet(ip)
	if err != nil {
		return 0, fmt.Errorf("%w: route lookup for %s: %v", errs.ErrRouteLookup, ip, err)
	}
	if len(routes) == 0 {
		return 0, fmt.Errorf("%w: no route to %s", errs.ErrRouteLookup, ip)
	}

	route := routes[0]
	if route.LinkIndex == 0 {
		return 0, fmt.Errorf("%w: route to %s has no link index", errs.ErrRouteLookup, ip)
	}

	logger.WithField("ip", ip.String()).WithField("ifindex", route.LinkIndex).Debug("resolved route")
	return route.LinkIndex, nil
}

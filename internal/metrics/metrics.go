// Package metrics exports the map-occupancy gauges the healthz server's
// /metrics endpoint serves, grounded on the prometheus.GaugeVec style
// remote_cluster.go uses for its own per-cluster gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kubernetes-sigs/blixt/internal/dataplane/bpfmaps"
)

const namespace = "blixt"

// TableGauges wires BACKENDS/GATEWAY_INDEXES/LB_CONNECTIONS occupancy as
// GaugeFuncs evaluated lazily on every scrape, so there is no background
// goroutine polling a map nobody is reading.
type TableGauges struct {
	backends    prometheus.GaugeFunc
	gateways    prometheus.GaugeFunc
	connections prometheus.GaugeFunc
}

// NewTableGauges builds and registers the three occupancy gauges against
// reg. Errors from a failed Len() call report as -1 rather than panicking a
// scrape.
func NewTableGauges(reg prometheus.Registerer, tables *bpfmaps.Tables) (*TableGauges, error) {
	g := &TableGauges{
		backends:    gaugeFunc(tables.Backends.Len, "backends_entries", "Number of VIPs currently published in BACKENDS."),
		gateways:    gaugeFunc(tables.GatewayIndexes.Len, "gateway_indexes_entries", "Number of round-robin cursors currently tracked in GATEWAY_INDEXES."),
		connections: gaugeFunc(tables.Connections.Len, "lb_connections_entries", "Number of flows currently pinned in LB_CONNECTIONS."),
	}

	for _, c := range []prometheus.Collector{g.backends, g.gateways, g.connections} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func gaugeFunc(lenFn func() (int, error), name, help string) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 {
		n, err := lenFn()
		if err != nil {
			return -1
		}
		return float64(n)
	})
}

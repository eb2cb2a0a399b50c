package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters for the fulfillment pipeline. One instance is
// created at startup and threaded through the application service.
type Metrics struct {
	registry *prometheus.Registry

	AllocationsCommitted prometheus.Counter
	StockConflicts       prometheus.Counter
	PicksConfirmed       prometheus.Counter
	ShortPicks           prometheus.Counter
	ShipmentsFinalized   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AllocationsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "wms_allocations_committed_total",
			Help: "Allocation plans committed into picking jobs.",
		}),
		StockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "wms_stock_conflicts_total",
			Help: "Allocation commits rejected because stock moved between plan and commit.",
		}),
		PicksConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "wms_picks_confirmed_total",
			Help: "Picking tasks confirmed as completed.",
		}),
		ShortPicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "wms_short_picks_total",
			Help: "Short-pick exceptions reported.",
		}),
		ShipmentsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "wms_shipments_finalized_total",
			Help: "Orders finalized into shipments.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

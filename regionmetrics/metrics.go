// Package regionmetrics exports region and slot table usage to Prometheus.
//
// Regions and tables are owned by a single goroutine, so collectors never
// read them directly. The owner calls ObserveRegion and ObserveTable with
// snapshots at points of its choosing, typically once per frame or after
// a load phase, and scrapes read the last observed values.
package regionmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pavanmanishd/region"
	"github.com/pavanmanishd/region/slots"
)

// Metrics holds the collectors for one named region and its slot table.
type Metrics struct {
	capacity  prometheus.Gauge
	used      prometheus.Gauge
	highWater prometheus.Gauge

	allocs       prometheus.Counter
	failedAllocs prometheus.Counter
	rewinds      prometheus.Counter

	tableLimit    prometheus.Gauge
	tableUsed     prometheus.Gauge
	failedReserve prometheus.Counter

	// counter values already exported
	last     region.Metrics
	lastSlot slots.Stats
}

// New registers the collectors with reg, labelled region=name. A nil reg
// creates unregistered collectors.
func New(reg prometheus.Registerer, name string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"region": name}

	return &Metrics{
		capacity: f.NewGauge(prometheus.GaugeOpts{
			Name:        "region_capacity_bytes",
			Help:        "Size of the region's backing buffer in bytes.",
			ConstLabels: labels,
		}),
		used: f.NewGauge(prometheus.GaugeOpts{
			Name:        "region_used_bytes",
			Help:        "Bytes below the region's current offset, alignment padding included.",
			ConstLabels: labels,
		}),
		highWater: f.NewGauge(prometheus.GaugeOpts{
			Name:        "region_high_water_bytes",
			Help:        "Highest offset the region has reached.",
			ConstLabels: labels,
		}),
		allocs: f.NewCounter(prometheus.CounterOpts{
			Name:        "region_allocations_total",
			Help:        "Total number of successful allocations.",
			ConstLabels: labels,
		}),
		failedAllocs: f.NewCounter(prometheus.CounterOpts{
			Name:        "region_failed_allocations_total",
			Help:        "Total number of allocations refused for lack of capacity.",
			ConstLabels: labels,
		}),
		rewinds: f.NewCounter(prometheus.CounterOpts{
			Name:        "region_rewinds_total",
			Help:        "Total number of rewinds that reclaimed memory.",
			ConstLabels: labels,
		}),
		tableLimit: f.NewGauge(prometheus.GaugeOpts{
			Name:        "slot_table_limit",
			Help:        "Number of slots in the table.",
			ConstLabels: labels,
		}),
		tableUsed: f.NewGauge(prometheus.GaugeOpts{
			Name:        "slot_table_used",
			Help:        "Number of occupied slots.",
			ConstLabels: labels,
		}),
		failedReserve: f.NewCounter(prometheus.CounterOpts{
			Name:        "slot_table_failed_reservations_total",
			Help:        "Total number of reservations refused for lack of slots.",
			ConstLabels: labels,
		}),
	}
}

// ObserveRegion records a region snapshot. Counters advance by the growth
// since the previous snapshot of the same generation; a snapshot from a new
// generation (re-Init, or another region) counts in full.
func (m *Metrics) ObserveRegion(s region.Metrics) {
	if s.Generation != m.last.Generation {
		m.last = region.Metrics{Generation: s.Generation}
	}
	m.capacity.Set(float64(s.Capacity))
	m.used.Set(float64(s.SizeInUse))
	m.highWater.Set(float64(s.HighWater))

	m.allocs.Add(delta(s.Allocs, m.last.Allocs))
	m.failedAllocs.Add(delta(s.FailedAllocs, m.last.FailedAllocs))
	m.rewinds.Add(delta(s.Rewinds, m.last.Rewinds))
	m.last = s
}

// ObserveTable records a slot table snapshot.
func (m *Metrics) ObserveTable(s slots.Stats) {
	if s.Generation != m.lastSlot.Generation {
		m.lastSlot = slots.Stats{Generation: s.Generation}
	}
	m.tableLimit.Set(float64(s.Limit))
	m.tableUsed.Set(float64(s.Used))

	m.failedReserve.Add(delta(s.FailedReservations, m.lastSlot.FailedReservations))
	m.lastSlot = s
}

func delta(now, before uint64) float64 {
	if now < before {
		return 0
	}
	return float64(now - before)
}

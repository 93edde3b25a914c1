// Package metrics exposes rollback pacing as prometheus/client_golang
// gauges/counters, wired only from cmd/battlesim so the simulation core
// itself never imports a metrics library (spec.md §1 Non-goals keeps
// observability outside the deterministic core; spec.md §4.8's pacing
// state is exactly the kind of operator-facing signal a real deployment
// would want on a dashboard).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Rollback holds every gauge/counter cmd/battlesim updates from the
// rollback.Controller's per-tick notifications and pacing state.
type Rollback struct {
	SyncedTime      prometheus.Gauge
	SimulationTime  prometheus.Gauge
	Resimulations   prometheus.Counter
	ResimulateDepth prometheus.Histogram
	SlowdownsTotal  *prometheus.CounterVec
	DesyncsTotal    prometheus.Counter
	LeadAverage     *prometheus.GaugeVec
}

// NewRollback registers every metric against reg and returns the handle.
func NewRollback(reg prometheus.Registerer) *Rollback {
	r := &Rollback{
		SyncedTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "battlesim", Subsystem: "rollback", Name: "synced_time_frames",
			Help: "Earliest frame for which every peer's input is committed.",
		}),
		SimulationTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "battlesim", Subsystem: "rollback", Name: "simulation_time_frames",
			Help: "Frames actually simulated locally.",
		}),
		Resimulations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "battlesim", Subsystem: "rollback", Name: "resimulations_total",
			Help: "Number of resimulate passes triggered by a misprediction.",
		}),
		ResimulateDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "battlesim", Subsystem: "rollback", Name: "resimulate_depth_frames",
			Help:    "Frames replayed per resimulate pass.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		SlowdownsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "battlesim", Subsystem: "rollback", Name: "slowdowns_total",
			Help: "Deliberate pacing slowdowns applied, by peer index.",
		}, []string{"peer"}),
		DesyncsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "battlesim", Subsystem: "rollback", Name: "desyncs_total",
			Help: "Debug snapshot-hash mismatches flagged against a remote peer.",
		}),
		LeadAverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "battlesim", Subsystem: "rollback", Name: "lead_average_frames",
			Help: "Rolling local view of frame lead over a remote peer.",
		}, []string{"peer"}),
	}
	reg.MustRegister(r.SyncedTime, r.SimulationTime, r.Resimulations, r.ResimulateDepth, r.SlowdownsTotal, r.DesyncsTotal, r.LeadAverage)
	return r
}

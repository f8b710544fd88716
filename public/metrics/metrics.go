package metrics

import (
	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector mirrors store snapshots into Prometheus metrics
type Collector struct {
	operationsTotal *prometheus.CounterVec
	visitors        prometheus.Gauge
	trashLevel      prometheus.Gauge
	alertsActive    prometheus.Gauge
	alertsTotal     prometheus.Gauge
	gatesByStatus   *prometheus.GaugeVec
	securityStatus  *prometheus.GaugeVec
	activities      prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stadion_store_operations_total",
				Help: "Total number of store mutations by operation",
			},
			[]string{"operation"},
		),
		visitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stadion_visitors",
			Help: "Current simulated visitor count",
		}),
		trashLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stadion_trash_level_percent",
			Help: "Fill level of the tracked trash bin",
		}),
		alertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stadion_alerts_active",
			Help: "Number of alerts that are not resolved",
		}),
		alertsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stadion_alerts",
			Help: "Number of alerts in the current snapshot",
		}),
		gatesByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stadion_gates",
				Help: "Number of gates per status",
			},
			[]string{"status"},
		),
		securityStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stadion_security_status",
				Help: "1 for the current security posture, 0 otherwise",
			},
			[]string{"status"},
		),
		activities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stadion_activity_entries",
			Help: "Length of the activity feed",
		}),
	}

	reg.MustRegister(
		c.operationsTotal,
		c.visitors,
		c.trashLevel,
		c.alertsActive,
		c.alertsTotal,
		c.gatesByStatus,
		c.securityStatus,
		c.activities,
	)
	return c
}

// Observe is a store.Listener
func (c *Collector) Observe(op store.Operation, state model.SimulationState) {
	c.operationsTotal.WithLabelValues(string(op)).Inc()
	c.Update(state)
}

// Update sets every gauge from a snapshot
func (c *Collector) Update(state model.SimulationState) {
	c.visitors.Set(float64(state.VisitorCount))
	c.trashLevel.Set(float64(state.TrashLevel))
	c.alertsActive.Set(float64(state.ActiveAlertCount))
	c.alertsTotal.Set(float64(len(state.Alerts)))
	c.activities.Set(float64(len(state.ActivityLog)))

	counts := map[model.GateStatus]int{
		model.GateNormal:  0,
		model.GateWarning: 0,
		model.GateAlert:   0,
	}
	for _, status := range state.GateStatus {
		counts[status]++
	}
	for status, n := range counts {
		c.gatesByStatus.WithLabelValues(string(status)).Set(float64(n))
	}

	for _, status := range []model.SecurityStatus{model.SecuritySafe, model.SecurityWarning, model.SecurityDanger} {
		v := 0.0
		if state.SecurityStatus == status {
			v = 1
		}
		c.securityStatus.WithLabelValues(string(status)).Set(v)
	}
}

// Attach seeds the gauges from the current snapshot and subscribes to the
// store. The returned function detaches the collector.
func (c *Collector) Attach(st *store.Store) func() {
	c.Update(st.Snapshot())
	return st.Subscribe(c.Observe)
}

// Package metrics exports scheduler counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world"
)

// Metrics is a world.TickLogger that turns tick batches into counters.
type Metrics struct {
	reg *prometheus.Registry

	TicksTotal     prometheus.Counter
	StepDuration   prometheus.Histogram
	TaskEvents     *prometheus.CounterVec
	TasksDropped   prometheus.Counter
	CancelsTotal   *prometheus.CounterVec
	SignalsTotal   prometheus.Counter
	ActiveTasks    *prometheus.GaugeVec
	IndexDropTotal prometheus.CounterFunc
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		TicksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total scheduler ticks",
		}),
		StepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of one scheduler tick",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		TaskEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_events_total",
			Help:      "Task lifecycle events by kind, phase and outcome",
		}, []string{"kind", "phase", "outcome"}),
		TasksDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_dropped_total",
			Help:      "Queued tasks discarded after an abort",
		}),
		CancelsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancels_total",
			Help:      "Cancel requests by result",
		}, []string{"result"}),
		SignalsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signals delivered to waiting ships",
		}),
		ActiveTasks: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_tasks",
			Help:      "Ships with an active task of each kind",
		}, []string{"kind"}),
	}
}

// WatchIndexDrops exports a drop counter owned by another component.
func (m *Metrics) WatchIndexDrops(namespace string, drops func() uint64) {
	m.IndexDropTotal = promauto.With(m.reg).NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "index_dropped_ticks_total",
		Help:      "Ticks the sqlite index dropped because its queue was full",
	}, func() float64 { return float64(drops()) })
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) WriteTick(e world.TickLogEntry) error {
	m.TicksTotal.Inc()
	m.StepDuration.Observe(e.StepMS / 1000)
	for _, ev := range e.Events {
		outcome := ""
		if ev.Phase == world.PhaseCompleted {
			outcome = ev.Outcome.String()
		}
		m.TaskEvents.WithLabelValues(ev.Kind.String(), ev.Phase.String(), outcome).Inc()
		if ev.Dropped > 0 {
			m.TasksDropped.Add(float64(ev.Dropped))
		}
	}
	for _, c := range e.Cancels {
		result := "refused"
		if c.Applied {
			result = "applied"
		}
		m.CancelsTotal.WithLabelValues(result).Inc()
	}
	m.SignalsTotal.Add(float64(e.Signals))
	for _, k := range tasks.Kinds() {
		m.ActiveTasks.WithLabelValues(k.String()).Set(float64(e.Active[k]))
	}
	return nil
}

// Package prom implements the observability hooks on top of Prometheus.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/grephite/pkg/observability"
)

var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.PathHooks   = (*Metrics)(nil)
	_ observability.ScriptHooks = (*Metrics)(nil)
)

// Metrics holds the grephite collectors registered on one registry.
type Metrics struct {
	LayoutTicks       prometheus.Counter
	LayoutTickSeconds prometheus.Histogram
	LayoutNodes       prometheus.Gauge
	GlobalSpeed       prometheus.Gauge

	PathSearches      *prometheus.CounterVec
	PathSearchSeconds prometheus.Histogram
	PathReachable     prometheus.Gauge

	ScriptLoads      *prometheus.CounterVec
	ScriptSteps      *prometheus.CounterVec
	ScriptStepSecond prometheus.Histogram
	ScriptCommands   *prometheus.CounterVec
	ScriptFlushed    prometheus.Counter
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LayoutTicks: f.NewCounter(prometheus.CounterOpts{
			Name: "grephite_layout_ticks_total",
			Help: "Total number of layout iterations that moved nodes",
		}),
		LayoutTickSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "grephite_layout_tick_duration_seconds",
			Help:    "Layout iteration duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		LayoutNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "grephite_layout_nodes",
			Help: "Number of nodes in the last layout iteration",
		}),
		GlobalSpeed: f.NewGauge(prometheus.GaugeOpts{
			Name: "grephite_layout_global_speed",
			Help: "Smoothed global speed after the last layout iteration",
		}),
		PathSearches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grephite_path_searches_total",
			Help: "Total number of shortest path searches",
		}, []string{"status"}),
		PathSearchSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "grephite_path_search_duration_seconds",
			Help:    "Shortest path search duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		}),
		PathReachable: f.NewGauge(prometheus.GaugeOpts{
			Name: "grephite_path_reachable_nodes",
			Help: "Reachable nodes in the last successful search",
		}),
		ScriptLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grephite_script_loads_total",
			Help: "Total number of script loads",
		}, []string{"status"}),
		ScriptSteps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grephite_script_steps_total",
			Help: "Total number of coroutine resumes",
		}, []string{"status"}),
		ScriptStepSecond: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "grephite_script_step_duration_seconds",
			Help:    "Coroutine resume duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		}),
		ScriptCommands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grephite_script_commands_total",
			Help: "Commands applied to the color map",
		}, []string{"kind", "status"}),
		ScriptFlushed: f.NewCounter(prometheus.CounterOpts{
			Name: "grephite_script_flushed_commands_total",
			Help: "Commands flushed from session buffers",
		}),
	}
}

// Register installs m as the global layout, path and script hooks.
func (m *Metrics) Register() {
	observability.SetLayoutHooks(m)
	observability.SetPathHooks(m)
	observability.SetScriptHooks(m)
}

func (m *Metrics) OnTick(_ context.Context, nodeCount int, globalSpeed float64, d time.Duration) {
	m.LayoutTicks.Inc()
	m.LayoutTickSeconds.Observe(d.Seconds())
	m.LayoutNodes.Set(float64(nodeCount))
	m.GlobalSpeed.Set(globalSpeed)
}

func (m *Metrics) OnSearch(_ context.Context, _ int, reachable int, d time.Duration, err error) {
	m.PathSearches.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	m.PathSearchSeconds.Observe(d.Seconds())
	m.PathReachable.Set(float64(reachable))
}

func (m *Metrics) OnLoad(_ context.Context, _ string, err error) {
	m.ScriptLoads.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) OnStep(_ context.Context, _ string, d time.Duration, err error) {
	m.ScriptSteps.WithLabelValues(status(err)).Inc()
	m.ScriptStepSecond.Observe(d.Seconds())
}

func (m *Metrics) OnFlush(_ context.Context, _ string, n int) {
	m.ScriptFlushed.Add(float64(n))
}

func (m *Metrics) OnCommand(_ context.Context, kind string, applied bool) {
	s := "applied"
	if !applied {
		s = "skipped"
	}
	m.ScriptCommands.WithLabelValues(kind, s).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

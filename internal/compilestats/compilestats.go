// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package compilestats exposes Prometheus counters for a compile run:
// rules processed, pipeline states allocated, ternary entries emitted,
// multicast groups allocated, and compile errors by camuserr.Kind.
package compilestats

import (
	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/camus/internal/camuserr"
)

// Metrics holds every compile-run Prometheus metric.
type Metrics struct {
	RulesCompiled         prometheus.Counter
	StatesAllocated       prometheus.Gauge
	TernaryEntriesEmitted prometheus.Gauge
	McastGroupsAllocated  prometheus.Gauge
	CompileErrorsTotal    *prometheus.CounterVec
}

// NewMetrics builds an unregistered Metrics. Call Describe/Collect
// yourself, or register m with a prometheus.Registerer.
func NewMetrics() *Metrics {
	return &Metrics{
		RulesCompiled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camus_compile_rules_compiled_total",
			Help: "Total number of rules processed across all compile runs.",
		}),
		StatesAllocated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camus_compile_states_allocated",
			Help: "Number of pipeline states allocated by the most recent compile run.",
		}),
		TernaryEntriesEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camus_compile_ternary_entries",
			Help: "Number of ternary (Lt/Gt/Range) transition entries emitted by the most recent compile run.",
		}),
		McastGroupsAllocated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "camus_compile_mcast_groups_allocated",
			Help: "Number of multicast groups allocated by the most recent compile run.",
		}),
		CompileErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camus_compile_errors_total",
			Help: "Total number of compile errors, labeled by error kind.",
		}, []string{"kind"}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.RulesCompiled.Describe(ch)
	m.StatesAllocated.Describe(ch)
	m.TernaryEntriesEmitted.Describe(ch)
	m.McastGroupsAllocated.Describe(ch)
	m.CompileErrorsTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.RulesCompiled.Collect(ch)
	m.StatesAllocated.Collect(ch)
	m.TernaryEntriesEmitted.Collect(ch)
	m.McastGroupsAllocated.Collect(ch)
	m.CompileErrorsTotal.Collect(ch)
}

// ObserveCompile records the outcome of one successful compile run.
func (m *Metrics) ObserveCompile(rules, states, ternaryEntries, mcastGroups int) {
	m.RulesCompiled.Add(float64(rules))
	m.StatesAllocated.Set(float64(states))
	m.TernaryEntriesEmitted.Set(float64(ternaryEntries))
	m.McastGroupsAllocated.Set(float64(mcastGroups))
}

// ObserveError records a compile error under its camuserr.Kind label.
func (m *Metrics) ObserveError(err error) {
	m.CompileErrorsTotal.WithLabelValues(camuserr.GetKind(err).String()).Inc()
}

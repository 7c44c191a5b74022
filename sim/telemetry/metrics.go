// Package telemetry exports live run metrics to Prometheus.
package telemetry

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/inference-sim/coverage-sim/sim"
)

const (
	namespace = "coverage"
	kindLabel = "kind"
)

// Collector holds the run's Prometheus instruments. It implements
// sim.Observer.
type Collector struct {
	ticks        prometheus.Counter
	deaths       prometheus.Counter
	alive        prometheus.Gauge
	coverageCost prometheus.Gauge
	contributors prometheus.Gauge
	recovered    *prometheus.CounterVec
}

// NewCollector registers the instruments with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "The number of completed ticks.",
		}),
		deaths: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_failures_total",
			Help:      "The number of agents that failed.",
		}),
		alive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agents_alive",
			Help:      "The number of live agents after the last tick.",
		}),
		coverageCost: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cost",
			Help:      "The weighted coverage cost after the last tick.",
		}),
		contributors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "claimed_sources",
			Help:      "The number of sources claimed by some cell in the last tick.",
		}),
		recovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovered_conditions_total",
			Help:      "The number of recovered per-tick conditions.",
		}, []string{kindLabel}),
	}
}

// ObserveTick updates the instruments from a snapshot.
func (c *Collector) ObserveTick(snap sim.Snapshot) error {
	c.ticks.Inc()
	c.deaths.Add(float64(len(snap.Deaths)))
	c.alive.Set(float64(snap.Alive()))
	if !math.IsInf(snap.CoverageCost, 0) {
		c.coverageCost.Set(snap.CoverageCost)
	}

	claimed := 0
	for _, a := range snap.Agents {
		if a.Alive && a.Cell != nil {
			claimed += len(a.Cell.Contributors)
		}
	}
	c.contributors.Set(float64(claimed))

	for _, d := range snap.Diagnostics {
		c.recovered.
			With(prometheus.Labels{kindLabel: string(d.Kind)}).
			Inc()
	}
	return nil
}

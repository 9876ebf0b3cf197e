package tracker

import (
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records step outcomes and durations and writes them to a
// node-exporter textfile when the run finishes.
type Metrics struct {
	path     string
	log      logr.Logger
	registry *prometheus.Registry

	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runDuration  *prometheus.GaugeVec
	runErrored   *prometheus.GaugeVec

	errored bool
}

// NewMetrics creates a metrics observer writing to path on run finish.
func NewMetrics(path string, log logr.Logger) *Metrics {
	m := &Metrics{
		path:     path,
		log:      log,
		registry: prometheus.NewRegistry(),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "corefleet",
				Subsystem: "run",
				Name:      "steps_total",
				Help:      "Total number of steps by outcome",
			},
			[]string{"label", "outcome"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "corefleet",
				Subsystem: "run",
				Name:      "step_duration_seconds",
				Help:      "Duration of steps in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 3, 9), // 100ms to ~11min
			},
			[]string{"label", "outcome"},
		),
		runDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "corefleet",
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Duration of the last run in seconds",
			},
			[]string{"label"},
		),
		runErrored: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "corefleet",
				Subsystem: "run",
				Name:      "errored",
				Help:      "Whether the last run ended on an error (1) or not (0)",
			},
			[]string{"label"},
		),
	}
	m.registry.MustRegister(m.stepsTotal, m.stepDuration, m.runDuration, m.runErrored)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// OnEvent implements Observer.
func (m *Metrics) OnEvent(e Event) {
	switch e.Type {
	case EventStepFinished, EventStepFailed, EventStepErrored:
		outcome := e.Step.Outcome.String()
		m.stepsTotal.WithLabelValues(e.Label, outcome).Inc()
		m.stepDuration.WithLabelValues(e.Label, outcome).Observe(e.Step.Duration.Seconds())
		if e.Step.Outcome == OutcomeErrored {
			m.errored = true
		}
	case EventRunFinished:
		m.runDuration.WithLabelValues(e.Label).Set(e.Elapsed.Seconds())
		errored := 0.0
		if m.errored {
			errored = 1
		}
		m.runErrored.WithLabelValues(e.Label).Set(errored)

		if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
			m.log.Error(err, "failed to write metrics textfile", "path", m.path)
		}
	}
}

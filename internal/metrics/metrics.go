// Package metrics exposes sender activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unklstewy/asv-radar-sim/internal/session"
	"github.com/unklstewy/asv-radar-sim/internal/sink"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// Metrics holds the sender collectors and the registry they belong to.
type Metrics struct {
	registry *prometheus.Registry

	recordsSent  prometheus.Counter
	sendErrors   prometheus.Counter
	sendDuration prometheus.Histogram
	sessionState prometheus.Gauge
	lastT        prometheus.Gauge
	lastRange    prometheus.Gauge
	lastAzimuth  prometheus.Gauge
}

// New creates the sender collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recordsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asvsim_records_sent_total",
			Help: "Total number of flight records delivered to the sink.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asvsim_send_errors_total",
			Help: "Total number of records the sink failed to deliver.",
		}),
		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "asvsim_send_duration_seconds",
			Help:    "Time spent delivering one record, including retries.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1},
		}),
		sessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asvsim_session_state",
			Help: "Sender session state (0 idle, 1 running, 2 stopping, 3 stopped).",
		}),
		lastT: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asvsim_last_record_t_seconds",
			Help: "Flight time of the last delivered record.",
		}),
		lastRange: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asvsim_last_record_range_meters",
			Help: "Range of the last delivered record.",
		}),
		lastAzimuth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asvsim_last_record_azimuth_degrees",
			Help: "Azimuth of the last delivered record.",
		}),
	}
	m.registry.MustRegister(
		m.recordsSent,
		m.sendErrors,
		m.sendDuration,
		m.sessionState,
		m.lastT,
		m.lastRange,
		m.lastAzimuth,
	)
	return m
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetSessionState records a session state transition.
func (m *Metrics) SetSessionState(s session.State) {
	m.sessionState.Set(float64(s))
}

// InstrumentSink wraps s so every delivery is counted and timed.
func (m *Metrics) InstrumentSink(s sink.Sink) sink.Sink {
	return &instrumented{Sink: s, m: m}
}

type instrumented struct {
	sink.Sink
	m *Metrics
}

func (i *instrumented) Send(rec trajectory.FlightRecord) error {
	start := time.Now()
	err := i.Sink.Send(rec)
	i.m.sendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		i.m.sendErrors.Inc()
		return err
	}
	i.m.recordsSent.Inc()
	i.m.lastT.Set(float64(rec.TSeconds))
	i.m.lastRange.Set(rec.Position.RangeM)
	i.m.lastAzimuth.Set(rec.Position.AzimuthDeg)
	return nil
}

// Close closes the wrapped sink.
func (i *instrumented) Close() error {
	return sink.Close(i.Sink)
}

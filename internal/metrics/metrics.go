// Package metrics keeps Prometheus metrics for the operating cycle and
// writes them to a node_exporter textfile collector file after each cycle.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFault   = "fault"
	ResultRestart = "restart"
)

// Recorder holds the node's metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry
	textfile string

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	lastSuccess   prometheus.Gauge
	temperature   prometheus.Gauge
	humidity      prometheus.Gauge
	joinPolls     prometheus.Gauge
}

// New creates a Recorder. When textfile is non-empty, Flush writes there.
func New(textfile string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snownode_cycles_total",
			Help: "Operating cycles by result and failing stage.",
		}, []string{"result", "stage"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snownode_cycle_duration_seconds",
			Help:    "Wall time of one operating cycle, excluding the end-of-cycle sleep.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snownode_last_success_timestamp_seconds",
			Help: "Unix time of the last cycle that reported successfully.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snownode_temperature_celsius",
			Help: "Last reported temperature.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snownode_relative_humidity_percent",
			Help: "Last reported relative humidity.",
		}),
		joinPolls: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snownode_wifi_join_polls",
			Help: "Status polls used by the last failed Wi-Fi join.",
		}),
	}

	r.registry.MustRegister(
		r.cycles,
		r.cycleDuration,
		r.lastSuccess,
		r.temperature,
		r.humidity,
		r.joinPolls,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCycle records one finished cycle. stage is empty on success.
func (r *Recorder) ObserveCycle(result, stage string, took time.Duration, now time.Time) {
	r.cycles.WithLabelValues(result, stage).Inc()
	r.cycleDuration.Observe(took.Seconds())
	if result == ResultSuccess {
		r.lastSuccess.Set(float64(now.Unix()))
	}
}

// ObserveReading records the last reported values.
func (r *Recorder) ObserveReading(celsius, humidity float64) {
	r.temperature.Set(celsius)
	r.humidity.Set(humidity)
}

// ObserveJoinPolls records how many polls a failed join used.
func (r *Recorder) ObserveJoinPolls(polls int) {
	r.joinPolls.Set(float64(polls))
}

// Flush writes the registry to the textfile, if one is configured.
func (r *Recorder) Flush() error {
	if r.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.textfile, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

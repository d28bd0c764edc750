// Package metrics exposes Prometheus collectors for the array runtime and
// the /metrics and /healthz endpoints.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/checkpoint"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/dealloc"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/history"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/updatable"
)

// Metrics holds every collector.
type Metrics struct {
	// Deallocation queue
	DeallocEnqueued   prometheus.Counter
	DeallocReleased   prometheus.Counter
	DeallocPending    prometheus.Gauge
	DeallocReleaseDur prometheus.Histogram

	// Stages
	WindowEvictions *prometheus.CounterVec // labels: window
	StageUpdates    *prometheus.CounterVec // labels: stage
	StageResets     *prometheus.CounterVec // labels: stage

	// Checkpoints
	CheckpointBreakerState *prometheus.GaugeVec   // labels: store; 0=closed, 1=open, 2=half-open
	CheckpointBreakerTrips *prometheus.CounterVec // labels: store
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DeallocEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealloc_enqueued_total",
			Help: "Release actions posted to the deallocation queue",
		}),
		DeallocReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealloc_released_total",
			Help: "Release actions run by the deallocation worker",
		}),
		DeallocPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dealloc_pending",
			Help: "Release actions waiting in the deallocation queue",
		}),
		DeallocReleaseDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealloc_release_duration_seconds",
			Help:    "Time spent running one release action",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),

		WindowEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "window_evictions_total",
			Help: "Elements pushed out of full history windows",
		}, []string{"window"}),
		StageUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_updates_total",
			Help: "Updated notifications fired by a stage",
		}, []string{"stage"}),
		StageResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_resets_total",
			Help: "Resets of a stage",
		}, []string{"stage"}),

		CheckpointBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "checkpoint_breaker_state",
			Help: "Checkpoint store circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"store"}),
		CheckpointBreakerTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkpoint_breaker_trips_total",
			Help: "Times a checkpoint store circuit breaker tripped open",
		}, []string{"store"}),
	}

	reg.MustRegister(
		m.DeallocEnqueued,
		m.DeallocReleased,
		m.DeallocPending,
		m.DeallocReleaseDur,
		m.WindowEvictions,
		m.StageUpdates,
		m.StageResets,
		m.CheckpointBreakerState,
		m.CheckpointBreakerTrips,
	)
	return m
}

// DeallocHooks feeds the dealloc_* collectors; pass it to dealloc.WithHooks.
func (m *Metrics) DeallocHooks() dealloc.Hooks {
	return dealloc.Hooks{
		OnEnqueue: func(pending int) {
			m.DeallocEnqueued.Inc()
			m.DeallocPending.Set(float64(pending))
		},
		OnRelease: func(took time.Duration, pending int) {
			m.DeallocReleased.Inc()
			m.DeallocPending.Set(float64(pending))
			m.DeallocReleaseDur.Observe(took.Seconds())
		},
	}
}

// Instrument counts u's updates and resets under the stage label name.
func (m *Metrics) Instrument(name string, u updatable.Updatable) updatable.Subscription {
	updates := m.StageUpdates.WithLabelValues(name)
	resets := m.StageResets.WithLabelValues(name)
	up := u.OnUpdated(func(int64, array.Array) { updates.Inc() })
	rs := u.OnResetted(func(updatable.Updatable) { resets.Inc() })
	return updatable.Join(up, rs)
}

// InstrumentWindow counts evictions from w, replacing its eviction callback.
func (m *Metrics) InstrumentWindow(name string, w *history.ArrayWindow) {
	c := m.WindowEvictions.WithLabelValues(name)
	w.SetOnEvict(func([]float64) { c.Inc() })
}

// WatchWindow counts evictions from a generic window, replacing its
// eviction callback.
func WatchWindow[T any](m *Metrics, name string, w *history.Window[T]) {
	c := m.WindowEvictions.WithLabelValues(name)
	w.SetOnEvict(func(T) { c.Inc() })
}

// ObserveBreaker tracks b's state under the store label, keeping any
// callback already installed.
func (m *Metrics) ObserveBreaker(store string, b *checkpoint.Breaker) {
	state := m.CheckpointBreakerState.WithLabelValues(store)
	trips := m.CheckpointBreakerTrips.WithLabelValues(store)
	state.Set(float64(b.State()))
	prev := b.OnStateChange
	b.OnStateChange = func(from, to checkpoint.BreakerState) {
		state.Set(float64(to))
		if to == checkpoint.BreakerOpen {
			trips.Inc()
		}
		if prev != nil {
			prev(from, to)
		}
	}
}

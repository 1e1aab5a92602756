package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterTableChanges      *prometheus.CounterVec
	CounterCompletedWorkouts prometheus.Counter
	CounterDigests           *prometheus.CounterVec

	// gauges
	GaugeRequests      prometheus.Gauge
	GaugeSubscriptions prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("workouts", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("workouts", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "route", "status"})
	counterTableChanges := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "table_changes",
		Help:      "Committed writes announced to live queries, by table",
	}, []string{"table"})
	counterCompletedWorkouts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "completed_workouts",
		Help:      "The total number of workouts marked complete",
	})
	counterDigests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "daily_digests",
		Help:      "Daily plan digests computed, by outcome",
	}, []string{"outcome"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeSubscriptions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_queries",
		Help:      "Current number of live query subscriptions",
	})

	histReqDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10,
			},
			Name: "request_duration_seconds",
			Help: "Total duration of requests in seconds",
		},
		[]string{"route"},
	)

	return &Manager{
		CounterRequests:          counterRequests,
		CounterTableChanges:      counterTableChanges,
		CounterCompletedWorkouts: counterCompletedWorkouts,
		CounterDigests:           counterDigests,
		GaugeRequests:            gaugeRequests,
		GaugeSubscriptions:       gaugeSubscriptions,
		HistRequestDuration:      histReqDuration,
	}
}

// Subscribed, Unsubscribed and Notified let the manager observe the live
// query hub.
func (m *Manager) Subscribed() {
	m.GaugeSubscriptions.Inc()
}

func (m *Manager) Unsubscribed() {
	m.GaugeSubscriptions.Dec()
}

func (m *Manager) Notified(table string) {
	m.CounterTableChanges.WithLabelValues(table).Inc()
}

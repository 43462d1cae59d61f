package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Workspace metrics
	WorkspacesActive prometheus.Gauge
	WorkspacesTotal  prometheus.Counter
	FileOps          *prometheus.CounterVec

	// Preview metrics
	Compiles        *prometheus.CounterVec
	CompileDuration *prometheus.HistogramVec
	ConsoleRecords  *prometheus.CounterVec

	// Boundary metrics
	BoundaryTransitions *prometheus.CounterVec
	BoundariesErrored   prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
	stop      chan struct{}
	stopOnce  sync.Once

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveWorkspaces  int64   `json:"active_workspaces"`
	ActiveConnections int64   `json:"active_connections"`
	Compiles          int64   `json:"compiles"`
	FailedCompiles    int64   `json:"failed_compiles"`
	TotalDuration     float64 `json:"total_duration"` // sum of all request durations
	RequestCount      int64   `json:"request_count"`  // count for averaging
}

// NewMetrics creates a metrics collector on the default Prometheus registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a metrics collector registered on reg
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		stop:      make(chan struct{}),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandpad_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandpad_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandpad_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandpad_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Workspace metrics
		WorkspacesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandpad_workspaces_active",
				Help: "Number of live workspaces",
			},
		),
		WorkspacesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sandpad_workspaces_total",
				Help: "Total number of workspaces created",
			},
		),
		FileOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandpad_file_operations_total",
				Help: "Total number of file store mutations",
			},
			[]string{"op"},
		),

		// Preview metrics
		Compiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandpad_compiles_total",
				Help: "Total number of preview compiles",
			},
			[]string{"outcome"},
		),
		CompileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandpad_compile_duration_seconds",
				Help:    "Preview compile duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		ConsoleRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandpad_console_records_total",
				Help: "Total number of captured console records",
			},
			[]string{"level"},
		),

		// Boundary metrics
		BoundaryTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandpad_boundary_transitions_total",
				Help: "Total number of failure boundary transitions",
			},
			[]string{"panel", "to"},
		),
		BoundariesErrored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandpad_boundaries_errored",
				Help: "Number of panels currently in the errored state",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandpad_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandpad_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandpad_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// Stop halts the uptime updater
func (m *Metrics) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCompile records one finished preview compile.
// outcome is "success", "error" or "timeout".
func (m *Metrics) RecordCompile(outcome string, duration time.Duration) {
	m.Compiles.WithLabelValues(outcome).Inc()
	m.CompileDuration.WithLabelValues(outcome).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Compiles++
	if outcome != "success" {
		m.snapshot.FailedCompiles++
	}
	m.mu.Unlock()
}

// RecordConsoleRecord records a captured console record
func (m *Metrics) RecordConsoleRecord(level string) {
	m.ConsoleRecords.WithLabelValues(level).Inc()
}

// RecordFileOp records a file store mutation
func (m *Metrics) RecordFileOp(op string) {
	m.FileOps.WithLabelValues(op).Inc()
}

// RecordBoundaryTransition records a boundary state change
func (m *Metrics) RecordBoundaryTransition(panel, to string) {
	m.BoundaryTransitions.WithLabelValues(panel, to).Inc()
	if to == "errored" {
		m.BoundariesErrored.Inc()
	} else {
		m.BoundariesErrored.Dec()
	}
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetWorkspacesActive sets the number of live workspaces
func (m *Metrics) SetWorkspacesActive(count int) {
	m.WorkspacesActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveWorkspaces = int64(count)
	m.mu.Unlock()
}

// IncWorkspacesTotal increments the total workspaces counter
func (m *Metrics) IncWorkspacesTotal() {
	m.WorkspacesTotal.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values tracked for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeDuration returns the time since the collector was created
func (m *Metrics) UptimeDuration() time.Duration {
	return time.Since(m.startTime)
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// MetricsSnapshot is the JSON form of the service metrics
type MetricsSnapshot struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Counters   monitoring.MetricsSnapshot `json:"counters"`
	Workspaces types.WorkspaceStats       `json:"workspaces"`
	Pool       *sandbox.PoolStats         `json:"runtime_pool,omitempty"`
	Summary    MetricsSummary             `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests      int64   `json:"total_requests"`
	AverageLatencyMs   float64 `json:"average_latency_ms"`
	ErrorRate          float64 `json:"error_rate"`
	CompileFailureRate float64 `json:"compile_failure_rate"`
	ActiveConnections  int64   `json:"active_connections"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

// Metrics returns counters for dashboards that do not scrape Prometheus
func (h *Handlers) Metrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}

	counters := h.metrics.Snapshot()
	snapshot := MetricsSnapshot{
		Timestamp:  time.Now(),
		Counters:   counters,
		Workspaces: h.manager.Stats(),
		Summary:    summarize(counters, h.metrics.UptimeDuration()),
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		snapshot.Pool = &stats
	}
	c.JSON(http.StatusOK, snapshot)
}

func summarize(s monitoring.MetricsSnapshot, uptime time.Duration) MetricsSummary {
	summary := MetricsSummary{
		TotalRequests:     s.TotalRequests,
		ActiveConnections: s.ActiveConnections,
		UptimeSeconds:     uptime.Seconds(),
	}
	if s.RequestCount > 0 {
		summary.AverageLatencyMs = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	if s.TotalRequests > 0 {
		summary.ErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
	}
	if s.Compiles > 0 {
		summary.CompileFailureRate = float64(s.FailedCompiles) / float64(s.Compiles)
	}
	return summary
}

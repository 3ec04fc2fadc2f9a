package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type RequestMetrics struct {
	RequestCount    int64            `json:"request_count"`
	AvgDurationMs   float64          `json:"avg_request_duration_ms"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoint_calls"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
	DeniedCount     int64            `json:"access_denied_count"`
	ValidationCount int64            `json:"validation_failure_count"`
}

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Critical bool      `json:"critical"`
	LastRun  time.Time `json:"last_run"`
}

type HealthCheckFunc func(ctx context.Context) error

// StatsFunc reports a component's own statistics for the /metrics payload.
type StatsFunc func() map[string]interface{}

type registeredCheck struct {
	fn       HealthCheckFunc
	critical bool
}

// Monitor collects request metrics and runs the registered health checks.
type Monitor struct {
	mu            sync.Mutex
	metrics       RequestMetrics
	totalDuration time.Duration

	checksMu sync.RWMutex
	checks   map[string]registeredCheck
	stats    map[string]StatsFunc

	checkTimeout time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{
		metrics: RequestMetrics{
			StatusCodes: make(map[string]int64),
			Endpoints:   make(map[string]int64),
			StartTime:   time.Now(),
		},
		checks:       make(map[string]registeredCheck),
		stats:        make(map[string]StatsFunc),
		checkTimeout: 5 * time.Second,
	}
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.metrics.ActiveRequests++
		m.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			endpoint = c.Request.Method + " unmatched"
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		m.metrics.RequestCount++
		m.metrics.ActiveRequests--
		m.totalDuration += duration
		m.metrics.AvgDurationMs = float64(m.totalDuration.Microseconds()) / 1000.0 / float64(m.metrics.RequestCount)
		m.metrics.LastRequest = time.Now()

		switch {
		case statusCode == http.StatusForbidden:
			m.metrics.DeniedCount++
		case statusCode == http.StatusUnprocessableEntity:
			m.metrics.ValidationCount++
		}
		if statusCode >= 400 {
			m.metrics.ErrorCount++
		}
		m.metrics.StatusCodes[http.StatusText(statusCode)]++
		m.metrics.Endpoints[endpoint]++
	}
}

func (m *Monitor) Snapshot() RequestMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.metrics
	snap.StatusCodes = make(map[string]int64, len(m.metrics.StatusCodes))
	snap.Endpoints = make(map[string]int64, len(m.metrics.Endpoints))
	for k, v := range m.metrics.StatusCodes {
		snap.StatusCodes[k] = v
	}
	for k, v := range m.metrics.Endpoints {
		snap.Endpoints[k] = v
	}
	return snap
}

// RegisterHealthCheck adds a check run on every health request. A failing
// critical check makes the service unready; others only degrade it.
func (m *Monitor) RegisterHealthCheck(name string, critical bool, fn HealthCheckFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.checks[name] = registeredCheck{fn: fn, critical: critical}
}

func (m *Monitor) RegisterStats(name string, fn StatsFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.stats[name] = fn
}

func (m *Monitor) RunHealthChecks(ctx context.Context) []HealthCheck {
	m.checksMu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]registeredCheck, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.checksMu.RUnlock()
	sort.Strings(names)

	results := make([]HealthCheck, 0, len(names))
	for _, name := range names {
		check := checks[name]
		checkCtx, cancel := context.WithTimeout(ctx, m.checkTimeout)
		err := check.fn(checkCtx)
		cancel()

		result := HealthCheck{
			Name:     name,
			Status:   "healthy",
			Critical: check.critical,
			LastRun:  time.Now(),
		}
		if err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// overallStatus is "healthy", "degraded" (a non-critical check failed) or
// "unhealthy".
func overallStatus(checks []HealthCheck) string {
	status := "healthy"
	for _, check := range checks {
		if check.Status == "healthy" {
			continue
		}
		if check.Critical {
			return "unhealthy"
		}
		status = "degraded"
	}
	return status
}

type SystemMetrics struct {
	Uptime         string      `json:"uptime"`
	MemoryUsage    MemoryStats `json:"memory"`
	GoroutineCount int         `json:"goroutine_count"`
	CPUCount       int         `json:"cpu_count"`
	GoVersion      string      `json:"go_version"`
}

type MemoryStats struct {
	Alloc        uint64 `json:"alloc_mb"`
	TotalAlloc   uint64 `json:"total_alloc_mb"`
	Sys          uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	GCPauseTotal string `json:"gc_pause_total"`
}

func (m *Monitor) SystemMetrics() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return SystemMetrics{
		Uptime: time.Since(m.metrics.StartTime).Round(time.Second).String(),
		MemoryUsage: MemoryStats{
			Alloc:        bToMb(ms.Alloc),
			TotalAlloc:   bToMb(ms.TotalAlloc),
			Sys:          bToMb(ms.Sys),
			NumGC:        ms.NumGC,
			GCPauseTotal: time.Duration(ms.PauseTotalNs).String(),
		},
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.checksMu.RLock()
		components := make(map[string]interface{}, len(m.stats))
		for name, fn := range m.stats {
			components[name] = fn()
		}
		m.checksMu.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"application": m.Snapshot(),
			"system":      m.SystemMetrics(),
			"components":  components,
			"timestamp":   time.Now(),
		})
	}
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := m.RunHealthChecks(c.Request.Context())
		status := overallStatus(checks)

		code := http.StatusOK
		if status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(m.metrics.StartTime).Round(time.Second).String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := m.RunHealthChecks(c.Request.Context())

		if overallStatus(checks) == "unhealthy" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/response"
)

const healthTimeout = 3 * time.Second

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemStats exposes live counters of the protocol server.
type SystemStats struct {
	QueueDepth  func() int
	Connections func() int
}

// SystemHandler serves operational endpoints.
type SystemHandler struct {
	db        Pinger
	stats     SystemStats
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(db Pinger, stats SystemStats, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		stats:     stats,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Uptime      string `json:"uptime"`
	QueueDepth  int    `json:"queue_depth"`
	Connections int    `json:"connections"`
	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heap_alloc"`
	GoVersion   string `json:"go_version"`
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	report := healthReport{
		Status:     "ok",
		Database:   "ok",
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		GoVersion:  runtime.Version(),
	}
	if h.stats.QueueDepth != nil {
		report.QueueDepth = h.stats.QueueDepth()
	}
	if h.stats.Connections != nil {
		report.Connections = h.stats.Connections()
	}

	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Health check: store unreachable")
		report.Status = "degraded"
		report.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	response.JSON(c, status, report)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

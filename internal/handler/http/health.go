package http

import (
	"Shortlytics-Backend/internal/analytics"
	"Shortlytics-Backend/internal/cache"
	"Shortlytics-Backend/internal/repository"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger проверяет доступность внешней зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc адаптер функции к Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// StatsRowCounter считает строки разбивки по ОС и устройствам
type StatsRowCounter interface {
	CountStatsRows(ctx context.Context, kind repository.StatsKind) (int64, error)
}

// HealthChecks зависимости, которые проверяют health endpoints. Cache может отсутствовать.
type HealthChecks struct {
	Database       Pinger
	Cache          Pinger
	CacheStats     func() cache.Stats
	ProcessorStats func() analytics.Stats
	StatsRows      StatsRowCounter
}

// HealthHandler обработчик health checks
type HealthHandler struct {
	checks HealthChecks
	log    *zap.Logger
}

// NewHealthHandler создает новый health handler
func NewHealthHandler(checks HealthChecks, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		log:    log,
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	DatabaseStatus string    `json:"database_status"`
	CacheStatus    string    `json:"cache_status"`
	Uptime         string    `json:"uptime,omitempty"`
}

const version = "1.0.0"

var startTime = time.Now()

// Health основной health check endpoint
//
//	@Summary	Liveness with dependency status
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbStatus := h.ping(ctx, "database", h.checks.Database)
	cacheStatus := h.ping(ctx, "cache", h.checks.Cache)

	// Без кэша редиректы идут в хранилище, сервис деградирует, но работает
	status := "healthy"
	statusCode := http.StatusOK
	switch {
	case dbStatus == "unhealthy":
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case cacheStatus == "unhealthy":
		status = "degraded"
	}

	writeJSON(w, h.log, HealthResponse{
		Status:         status,
		Timestamp:      time.Now(),
		Version:        version,
		DatabaseStatus: dbStatus,
		CacheStatus:    cacheStatus,
		Uptime:         time.Since(startTime).String(),
	}, statusCode)
}

// Ready readiness probe endpoint
//
//	@Summary	Readiness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	503	{object}	map[string]interface{}
//	@Router		/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := h.ping(ctx, "database", h.checks.Database) != "unhealthy"
	if h.checks.ProcessorStats != nil && !h.checks.ProcessorStats().Started {
		ready = false
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, h.log, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
	}, code)
}

// Metrics endpoint с метриками кэша и обработчика аналитики
//
//	@Summary	Service metrics
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Router		/metrics [get]
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": time.Since(startTime).Seconds(),
		"timestamp":      time.Now(),
		"version":        version,
	}
	if h.checks.CacheStats != nil {
		metrics["cache"] = h.checks.CacheStats()
	}
	if h.checks.ProcessorStats != nil {
		metrics["analytics"] = h.checks.ProcessorStats()
	}
	if h.checks.StatsRows != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		rows := make(map[string]int64, 2)
		for _, kind := range []repository.StatsKind{repository.OsBreakdown, repository.DeviceBreakdown} {
			count, err := h.checks.StatsRows.CountStatsRows(ctx, kind)
			if err != nil {
				h.log.Warn("failed to count stats rows", zap.Stringer("kind", kind), zap.Error(err))
				continue
			}
			rows[kind.String()] = count
		}
		metrics["stats_rows"] = rows
	}

	writeJSON(w, h.log, metrics, http.StatusOK)
}

func (h *HealthHandler) ping(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}

package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"vizpipe/internal/infrastructure"
	"vizpipe/pkg/contracts"
)

// DatasetStatter reports dataset load state. PipelineService implements it.
type DatasetStatter interface {
	Stats() DatasetStats
}

// SessionReporter reports live session counters. The WebSocket hub
// implements it.
type SessionReporter interface {
	GetHubMetrics() map[string]interface{}
}

// HealthService provides health check functionality
type HealthService struct {
	build     contracts.VersionInfo
	datasets  DatasetStatter
	sessions  SessionReporter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// VersionResponse is the body of GET /api/version
type VersionResponse struct {
	contracts.VersionInfo
	StartTime     time.Time `json:"start_time"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// NewHealthService creates a health service. datasets may be nil while the
// server starts without data.
func NewHealthService(build contracts.VersionInfo, datasets DatasetStatter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "health_service")

	logger.Info("HealthService initialized",
		slog.String("version", build.Version),
		slog.String("commit", build.GitCommit))

	return &HealthService{
		build:     build,
		datasets:  datasets,
		startTime: time.Now(),
		logger:    logger,
	}
}

// SetSessions attaches the session counters reported by LivenessCheck
func (hs *HealthService) SetSessions(sessions SessionReporter) {
	hs.sessions = sessions
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
	}
}

// ReadinessCheck is ready once the datasets are loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
		Services: map[string]interface{}{
			"datasets": hs.checkDatasets(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
	if hs.sessions != nil {
		status.Services = map[string]interface{}{
			"websocket": hs.sessions.GetHubMetrics(),
		}
	}
	return status
}

// Version returns the build metadata and uptime
func (hs *HealthService) Version() VersionResponse {
	return VersionResponse{
		VersionInfo:   hs.build,
		StartTime:     hs.startTime,
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
	}
}

func (hs *HealthService) checkDatasets() ServiceHealth {
	if hs.datasets == nil {
		return ServiceHealth{Status: "not_ready", Message: "no dataset source configured"}
	}
	stats := hs.datasets.Stats()
	if !stats.Loaded {
		return ServiceHealth{Status: "not_ready", Message: "datasets not loaded"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "datasets loaded",
		Uptime:  time.Since(stats.LoadedAt).Round(time.Second).String(),
	}
}

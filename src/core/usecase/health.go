package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"mindscale/src/core/ports"
)

// GameCounter reports how many games are live.
type GameCounter interface {
	ActiveCount() int
}

// HealthService checks the critical dependencies.
type HealthService struct {
	db    ports.Repository
	push  ports.ExternalService
	games GameCounter
	log   *slog.Logger
}

// NewHealthService creates a new HealthService. Any dependency may be nil.
func NewHealthService(db ports.Repository, push ports.ExternalService, games GameCounter, log *slog.Logger) *HealthService {
	return &HealthService{
		db:    db,
		push:  push,
		games: games,
		log:   log,
	}
}

// HealthStatus represents the health of the application.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Check performs a health check of all application components.
// Returns the overall health status.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "ok",
		Components: make(map[string]ComponentHealth),
	}

	probe := func(name string, svc interface{ Health(context.Context) error }) {
		if err := svc.Health(ctx); err != nil {
			s.log.Warn("health check failed", "component", name, "error", err)
			status.Status = "degraded"
			status.Components[name] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			return
		}
		status.Components[name] = ComponentHealth{Status: "healthy"}
	}
	if s.db != nil {
		probe("database", s.db)
	}
	if s.push != nil {
		probe("notifications", s.push)
	}
	if s.games != nil {
		status.Components["engine"] = ComponentHealth{
			Status:  "healthy",
			Message: strconv.Itoa(s.games.ActiveCount()) + " active games",
		}
	}

	return status
}

// health.go - Component health endpoint.
package server

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus represents the overall health of the system.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the health of an individual component.
type ComponentStatus string

const (
	ComponentStatusUp   ComponentStatus = "up"
	ComponentStatusDown ComponentStatus = "down"
)

// Health is the complete health check response.
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth is the health of a single component.
type ComponentHealth struct {
	Status  ComponentStatus `json:"status"`
	Message string          `json:"message,omitempty"`
	Details any             `json:"details,omitempty"`
}

// healthHandler handles GET /health. Storage down makes the whole service
// unhealthy (503); the in-memory user store cannot fail, it only reports
// its size.
func (cfg Config) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		health := Health{
			Status:     HealthStatusHealthy,
			Timestamp:  time.Now().UTC(),
			Version:    cfg.Build.Version,
			Components: map[string]ComponentHealth{},
		}

		health.Components["users"] = ComponentHealth{
			Status:  ComponentStatusUp,
			Details: map[string]any{"registered": cfg.Users.Len()},
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := cfg.Blobs.Ping(ctx); err != nil {
			health.Status = HealthStatusUnhealthy
			health.Components["storage"] = ComponentHealth{
				Status:  ComponentStatusDown,
				Message: err.Error(),
			}
		} else {
			health.Components["storage"] = ComponentHealth{Status: ComponentStatusUp}
		}

		status := http.StatusOK
		if health.Status == HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// Dependency is a named readiness check.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

// PostgresDependency checks the connection pool.
func PostgresDependency(pool *pgxpool.Pool) Dependency {
	return Dependency{Name: "postgres", Check: pool.Ping}
}

// RedisDependency checks the Redis client.
func RedisDependency(client *redis.Client) Dependency {
	return Dependency{Name: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps []Dependency
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 once every dependency answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := map[string]string{"status": "ready"}
	for _, dep := range h.deps {
		if err := dep.Check(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, dep.Name+" unhealthy", err.Error())
			return
		}
		status[dep.Name] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}

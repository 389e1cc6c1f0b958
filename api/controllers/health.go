package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/nmorales-dev/storefront-backend/api/responses"
	"github.com/nmorales-dev/storefront-backend/pkg/config"
	"github.com/nmorales-dev/storefront-backend/pkg/db"
	"github.com/nmorales-dev/storefront-backend/pkg/logger"
	"github.com/nmorales-dev/storefront-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of each backing dependency. The endpoint
// returns 503 when any probe fails so load balancers stop routing traffic.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		probe := func(name string, ping func(context.Context) error) {
			if ping == nil {
				checks[name] = "skipped"
				return
			}
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "health.probe_failed", err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbP != nil {
			probe("database", dbP.Ping)
		} else {
			checks["database"] = "skipped"
		}
		if redisP != nil {
			probe("redis", redisP.Ping)
		} else {
			checks["redis"] = "skipped"
		}

		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": overall,
			"checks": checks,
		})
	}
}

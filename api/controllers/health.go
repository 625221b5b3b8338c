package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/ilift/ilift-backend/api/responses"
	"github.com/ilift/ilift-backend/pkg/config"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
	pkgredis "github.com/ilift/ilift-backend/pkg/redis"
)

const (
	envHeader    = "X-ILift-Env"
	readyTimeout = 2 * time.Second
)

// ReadinessCheck names a dependency probed by /health/ready.
type ReadinessCheck struct {
	Name   string
	Pinger pkgredis.Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports each one's status.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		statuses := make(map[string]string, len(checks))
		var errs error
		for _, check := range checks {
			if check.Pinger == nil {
				statuses[check.Name] = "disabled"
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				statuses[check.Name] = "down"
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.Name+" unavailable"))
				continue
			}
			statuses[check.Name] = "up"
		}

		if errs != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "not ready").
				WithDetails(statuses))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}

package controllers

import (
	"context"
	"net/http"

	"github.com/sitestock/sitestock-backend/api/responses"
	"github.com/sitestock/sitestock-backend/internal/movements"
	"github.com/sitestock/sitestock-backend/pkg/config"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
)

const envHeader = "X-SiteStock-Env"

// Pinger is any dependency that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and then checks that the backing
// tables exist, so a fresh deploy reports SETUP_REQUIRED instead of ok.
func HealthReady(cfg *config.Config, logg *logger.Logger, svc movements.Service, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				typed := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unreachable").
					WithDetails(map[string]string{"dependency": name})
				responses.WriteError(r.Context(), logg, w, typed)
				return
			}
		}

		if svc != nil {
			if err := svc.Ready(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

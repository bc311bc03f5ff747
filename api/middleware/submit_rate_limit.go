package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/sitestock/sitestock-backend/api/responses"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
	"github.com/sitestock/sitestock-backend/pkg/redis"
)

type submitLimiterStore interface {
	FixedWindowAllow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// SubmitRatePolicy defines the throttling parameters for movement
// submissions, counted per client identity.
type SubmitRatePolicy struct {
	limit  int
	window time.Duration
}

// NewSubmitRatePolicy builds a policy with the supplied limit and window.
func NewSubmitRatePolicy(limit int, window time.Duration) SubmitRatePolicy {
	return SubmitRatePolicy{limit: limit, window: window}
}

func (p SubmitRatePolicy) enabled() bool {
	return p.limit > 0 && p.window > 0
}

// SubmitRateLimit throttles movement submissions per client within a
// fixed window. A disabled policy or missing store leaves the chain
// untouched.
func SubmitRateLimit(policy SubmitRatePolicy, store submitLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			clientID := ClientIDFromContext(ctx)
			if clientID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, redis.SubmitRateKey(clientID), int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"client_id":      clientID,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "movements.rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "demasiadas solicitudes, intenta de nuevo en unos minutos"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

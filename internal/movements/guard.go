package movements

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sitestock/sitestock-backend/pkg/config"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/redis"
)

type attemptStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

// PasscodeGuard authorizes entry movements against a shared allowlist.
// Failed attempts are counted per client in redis; reaching the limit
// locks the client out until the window expires.
type PasscodeGuard struct {
	allowlist   map[string]struct{}
	attempts    attemptStore
	maxAttempts int64
	window      time.Duration
}

// NewPasscodeGuard builds the guard from config.
func NewPasscodeGuard(cfg config.PasscodeConfig, attempts attemptStore) (*PasscodeGuard, error) {
	if attempts == nil {
		return nil, fmt.Errorf("attempt store required")
	}
	if len(cfg.Allowlist) == 0 {
		return nil, fmt.Errorf("passcode allowlist is empty")
	}
	allowlist := make(map[string]struct{}, len(cfg.Allowlist))
	for _, code := range cfg.Allowlist {
		allowlist[code] = struct{}{}
	}
	maxAttempts := int64(cfg.MaxAttempts)
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	window := cfg.LockoutWindow
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &PasscodeGuard{
		allowlist:   allowlist,
		attempts:    attempts,
		maxAttempts: maxAttempts,
		window:      window,
	}, nil
}

// Authorize checks the passcode for the given client. A correct code
// clears the client's failure counter. A wrong one increments it, and
// once the counter reaches the limit the client stays locked until the
// window expires, regardless of the code presented.
func (g *PasscodeGuard) Authorize(ctx context.Context, clientID, passcode string) error {
	key := redis.PasscodeAttemptsKey(clientID)

	if current, found, err := g.attempts.Get(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load passcode attempts")
	} else if found {
		if count, parseErr := strconv.ParseInt(current, 10, 64); parseErr == nil && count >= g.maxAttempts {
			return g.lockoutError()
		}
	}

	if _, ok := g.allowlist[passcode]; ok {
		if err := g.attempts.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset passcode attempts")
		}
		return nil
	}

	count, err := g.attempts.IncrWithTTL(ctx, key, g.window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record passcode attempt")
	}
	if count >= g.maxAttempts {
		return g.lockoutError()
	}

	remaining := g.maxAttempts - count
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "contraseña incorrecta").
		WithDetails([]string{fmt.Sprintf("Te quedan %d intentos", remaining)})
}

func (g *PasscodeGuard) lockoutError() error {
	return pkgerrors.New(pkgerrors.CodeRateLimit, "demasiados intentos fallidos").
		WithDetails([]string{fmt.Sprintf("Espera %s antes de volver a intentarlo", g.window)})
}

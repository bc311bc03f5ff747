package movements

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/sitestock/sitestock-backend/pkg/config"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
)

type memAttempts struct {
	counts map[string]int64
}

func newMemAttempts() *memAttempts {
	return &memAttempts{counts: map[string]int64{}}
}

func (m *memAttempts) Get(ctx context.Context, key string) (string, bool, error) {
	count, ok := m.counts[key]
	if !ok {
		return "", false, nil
	}
	return strconv.FormatInt(count, 10), true, nil
}

func (m *memAttempts) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memAttempts) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.counts, key)
	}
	return nil
}

func testPasscodeConfig() config.PasscodeConfig {
	return config.PasscodeConfig{
		Allowlist:     []string{"455126032", "454946123", "1002199809"},
		MaxAttempts:   3,
		LockoutWindow: 5 * time.Minute,
	}
}

func newTestGuard(t *testing.T, attempts attemptStore) *PasscodeGuard {
	t.Helper()
	guard, err := NewPasscodeGuard(testPasscodeConfig(), attempts)
	if err != nil {
		t.Fatalf("NewPasscodeGuard: %v", err)
	}
	return guard
}

func TestAuthorizeAcceptsAllowlistedCode(t *testing.T) {
	guard := newTestGuard(t, newMemAttempts())

	if err := guard.Authorize(context.Background(), "10.0.0.1", "455126032"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
}

func TestAuthorizeWrongCodeCountsDown(t *testing.T) {
	guard := newTestGuard(t, newMemAttempts())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := guard.Authorize(ctx, "10.0.0.2", "000000000")
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("attempt %d: expected unauthorized, got %v", i+1, err)
		}
	}

	// Third failure reaches the limit.
	err := guard.Authorize(ctx, "10.0.0.2", "000000000")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit on third failure, got %v", err)
	}

	// Locked out even with the right code.
	err = guard.Authorize(ctx, "10.0.0.2", "455126032")
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected lockout to persist, got %v", err)
	}
}

func TestAuthorizeSuccessResetsCounter(t *testing.T) {
	attempts := newMemAttempts()
	guard := newTestGuard(t, attempts)
	ctx := context.Background()

	if err := guard.Authorize(ctx, "10.0.0.3", "111111111"); err == nil {
		t.Fatal("expected failure for wrong code")
	}
	if err := guard.Authorize(ctx, "10.0.0.3", "454946123"); err != nil {
		t.Fatalf("Authorize with valid code: %v", err)
	}
	if len(attempts.counts) != 0 {
		t.Fatalf("expected counter cleared, got %v", attempts.counts)
	}
}

func TestAuthorizeSeparateClients(t *testing.T) {
	guard := newTestGuard(t, newMemAttempts())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = guard.Authorize(ctx, "10.0.0.4", "wrong")
	}
	if err := guard.Authorize(ctx, "10.0.0.5", "1002199809"); err != nil {
		t.Fatalf("other client should not be locked: %v", err)
	}
}

func TestNewPasscodeGuardValidation(t *testing.T) {
	if _, err := NewPasscodeGuard(testPasscodeConfig(), nil); err == nil {
		t.Fatal("expected error without attempt store")
	}
	if _, err := NewPasscodeGuard(config.PasscodeConfig{}, newMemAttempts()); err == nil {
		t.Fatal("expected error with empty allowlist")
	}
}

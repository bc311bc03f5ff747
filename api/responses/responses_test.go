package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var env types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var env types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["status"] != "ok" {
		t.Fatalf("unexpected data: %#v", env.Data)
	}
}

func TestWriteSuccessStatusCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]int64{"id": 7})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
}

func TestWriteErrorValidationExposesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "Debes ingresar al menos una cantidad").
		WithDetails(map[string]string{"campo": "cantidad"})
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("code = %q", env.Error.Code)
	}
	if env.Error.Message != "Debes ingresar al menos una cantidad" {
		t.Fatalf("message = %q", env.Error.Message)
	}
	if env.Error.Details == nil {
		t.Fatal("expected details to pass through for validation errors")
	}
}

func TestWriteErrorInternalHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: connection reset"), "load inventory")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Message == "load inventory" || env.Error.Message == "pq: connection reset" {
		t.Fatalf("internal message leaked: %q", env.Error.Message)
	}
	if env.Error.Details != nil {
		t.Fatalf("details leaked: %#v", env.Error.Details)
	}
}

func TestWriteErrorUntypedBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestWriteErrorSetupRequired(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeSetup, "las tablas del sistema no existen")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Code != "SETUP_REQUIRED" {
		t.Fatalf("code = %q", env.Error.Code)
	}
	if env.Error.Message != "las tablas del sistema no existen" {
		t.Fatalf("message = %q", env.Error.Message)
	}
}

func TestWriteErrorRateLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "demasiados intentos fallidos")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Message != "demasiados intentos fallidos" {
		t.Fatalf("message = %q", env.Error.Message)
	}
}

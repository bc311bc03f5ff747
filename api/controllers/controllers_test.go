package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sitestock/sitestock-backend/api/middleware"
	"github.com/sitestock/sitestock-backend/internal/areas"
	"github.com/sitestock/sitestock-backend/internal/media"
	"github.com/sitestock/sitestock-backend/internal/movements"
	"github.com/sitestock/sitestock-backend/pkg/config"
	"github.com/sitestock/sitestock-backend/pkg/db/models"
	"github.com/sitestock/sitestock-backend/pkg/enums"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
)

type stubMovementService struct {
	submitted *movements.SubmitInput
	dto       *movements.MovementDTO
	list      []movements.MovementDTO
	all       []models.Movement
	snapshot  *movements.StateDTO
	readyErr  error
	err       error
}

func (s *stubMovementService) Submit(ctx context.Context, input movements.SubmitInput) (*movements.MovementDTO, error) {
	s.submitted = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.dto, nil
}

func (s *stubMovementService) List(ctx context.Context, limit int) ([]movements.MovementDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.list) {
		return s.list[:limit], nil
	}
	return s.list, nil
}

func (s *stubMovementService) ListAll(ctx context.Context) ([]models.Movement, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.all, nil
}

func (s *stubMovementService) Snapshot(ctx context.Context) (*movements.StateDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (s *stubMovementService) Ready(ctx context.Context) error {
	return s.readyErr
}

type stubAreaService struct {
	list    []areas.AreaDTO
	created *areas.AreaDTO
	err     error
}

func (s stubAreaService) List(ctx context.Context) ([]areas.AreaDTO, error) {
	return s.list, s.err
}

func (s stubAreaService) GetByID(ctx context.Context, id int64) (*areas.AreaDTO, error) {
	return s.created, s.err
}

func (s stubAreaService) Default(ctx context.Context) (*areas.AreaDTO, error) {
	return s.created, s.err
}

func (s stubAreaService) Create(ctx context.Context, name string) (*areas.AreaDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &areas.AreaDTO{ID: 7, Name: name}, nil
}

type stubMediaService struct {
	gotName    string
	removedURL string
	result     *media.UploadResult
	err        error
	removeErr  error
}

func (s *stubMediaService) Store(ctx context.Context, fileName string, file io.Reader) (*media.UploadResult, error) {
	s.gotName = fileName
	io.Copy(io.Discard, file)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubMediaService) Remove(ctx context.Context, publicURL string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removedURL = publicURL
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func TestSubmitMovementSuccess(t *testing.T) {
	svc := &stubMovementService{dto: &movements.MovementDTO{ID: "m-1", Type: "out", AreaName: "Horno"}}
	handler := SubmitMovement(svc, nil)

	body := `{"type":"out","area_id":2,"ice_quantity":5,"bottle_quantity":0,"image_url":"https://cdn/x.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/movements", strings.NewReader(body))
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0) Chrome/126.0")
	req = req.WithContext(middleware.WithClientID(req.Context(), "203.0.113.7"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.submitted == nil {
		t.Fatal("service was not called")
	}
	if svc.submitted.ClientID != "203.0.113.7" {
		t.Fatalf("client id = %q", svc.submitted.ClientID)
	}
	if svc.submitted.AreaID == nil || *svc.submitted.AreaID != 2 {
		t.Fatalf("area id = %v", svc.submitted.AreaID)
	}
	if svc.submitted.Device.Browser != "Chrome" {
		t.Fatalf("device browser = %q", svc.submitted.Device.Browser)
	}
}

func TestSubmitMovementServiceError(t *testing.T) {
	svc := &stubMovementService{err: pkgerrors.New(pkgerrors.CodeValidation, "Debes ingresar al menos una cantidad")}
	handler := SubmitMovement(svc, nil)

	body := `{"type":"out","area_id":2,"image_url":"https://cdn/x.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/movements", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	env := decodeErrorBody(t, rec)
	if env.Error.Message != "Debes ingresar al menos una cantidad" {
		t.Fatalf("message = %q", env.Error.Message)
	}
}

func TestSubmitMovementMalformedBody(t *testing.T) {
	svc := &stubMovementService{}
	handler := SubmitMovement(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/movements", strings.NewReader(`{"type":`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.submitted != nil {
		t.Fatal("service should not run on malformed body")
	}
}

func TestListMovementsLimit(t *testing.T) {
	svc := &stubMovementService{list: []movements.MovementDTO{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	handler := ListMovements(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movements?limit=2", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data []movements.MovementDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(envelope.Data))
	}
}

func TestStateReturnsSnapshot(t *testing.T) {
	svc := &stubMovementService{snapshot: &movements.StateDTO{
		Alerts: []string{"Quedan 4 botellones (mínimo 10)"},
		Today:  movements.TodayCounts{Exits: 1},
	}}
	handler := State(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data movements.StateDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Alerts) != 1 || envelope.Data.Today.Exits != 1 {
		t.Fatalf("unexpected snapshot: %+v", envelope.Data)
	}
}

func TestStateSetupRequired(t *testing.T) {
	svc := &stubMovementService{err: pkgerrors.New(pkgerrors.CodeSetup, "las tablas del sistema no existen")}
	handler := State(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	env := decodeErrorBody(t, rec)
	if env.Error.Code != "SETUP_REQUIRED" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestCreateAreaSuccess(t *testing.T) {
	handler := CreateArea(stubAreaService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/areas", strings.NewReader(`{"name":"Laboratorio"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var envelope struct {
		Data areas.AreaDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Name != "Laboratorio" {
		t.Fatalf("name = %q", envelope.Data.Name)
	}
}

func TestCreateAreaTrimsName(t *testing.T) {
	handler := CreateArea(stubAreaService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/areas", strings.NewReader(`{"name":"  Cocina  "}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var envelope struct {
		Data areas.AreaDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Name != "Cocina" {
		t.Fatalf("expected trimmed name, got %q", envelope.Data.Name)
	}
}

func TestCreateAreaConflict(t *testing.T) {
	handler := CreateArea(stubAreaService{err: pkgerrors.New(pkgerrors.CodeConflict, "area already exists")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/areas", strings.NewReader(`{"name":"Horno"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestUploadPhotoSuccess(t *testing.T) {
	svc := &stubMediaService{result: &media.UploadResult{URL: "https://storage.googleapis.com/b/movements/x.jpg", MimeType: "image/jpeg", Size: 42}}
	handler := UploadPhoto(svc, nil, config.MediaConfig{MaxUploadBytes: 1 << 20})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "foto.jpg")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotName != "foto.jpg" {
		t.Fatalf("file name = %q", svc.gotName)
	}
}

func TestUploadPhotoMissingFile(t *testing.T) {
	handler := UploadPhoto(&stubMediaService{}, nil, config.MediaConfig{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestDeletePhotoSuccess(t *testing.T) {
	svc := &stubMediaService{}
	handler := DeletePhoto(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/media?url=https%3A%2F%2Fstorage.googleapis.com%2Fb%2Fmovements%2Fx.jpg", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.removedURL != "https://storage.googleapis.com/b/movements/x.jpg" {
		t.Fatalf("removed url = %q", svc.removedURL)
	}
}

func TestDeletePhotoMissingURL(t *testing.T) {
	handler := DeletePhoto(&stubMediaService{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/media", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestDeletePhotoServiceError(t *testing.T) {
	svc := &stubMediaService{removeErr: pkgerrors.New(pkgerrors.CodeDependency, "delete image")}
	handler := DeletePhoto(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/media?url=https://storage.googleapis.com/b/x.jpg", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestHealthReadyDependencyDown(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	handler := HealthReady(cfg, nil, &stubMovementService{}, map[string]Pinger{
		"redis": pingerFunc(func(ctx context.Context) error { return io.ErrUnexpectedEOF }),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	env := decodeErrorBody(t, rec)
	if env.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestHealthReadySetupRequired(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	svc := &stubMovementService{readyErr: pkgerrors.New(pkgerrors.CodeSetup, "las tablas del sistema no existen")}
	handler := HealthReady(cfg, nil, svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	env := decodeErrorBody(t, rec)
	if env.Error.Code != "SETUP_REQUIRED" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestHealthReadyOK(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "prod"
	handler := HealthReady(cfg, nil, &stubMovementService{}, map[string]Pinger{
		"db": pingerFunc(func(ctx context.Context) error { return nil }),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-SiteStock-Env"); got != "prod" {
		t.Fatalf("env header = %q", got)
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestConsumptionReport(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	areaName := "Horno"
	svc := &stubMovementService{all: []models.Movement{
		{
			Type:        enums.MovementOut,
			Area:        &models.Area{ID: 2, Name: areaName},
			IceQuantity: 6,
			CreatedAt:   now,
		},
	}}
	areaSvc := stubAreaService{list: []areas.AreaDTO{{ID: 1, Name: "Administrativa"}, {ID: 2, Name: "Horno"}}}
	handler := ConsumptionReport(svc, areaSvc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/consumption", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data consumptionReportResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.ByArea) != 2 {
		t.Fatalf("expected 2 area rows, got %d", len(envelope.Data.ByArea))
	}
	if envelope.Data.Totals.Ice != 6 {
		t.Fatalf("totals.ice = %d", envelope.Data.Totals.Ice)
	}
}

func TestEntriesReportRequiresRange(t *testing.T) {
	handler := EntriesReport(&stubMovementService{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/entries", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestEntriesReportSuccess(t *testing.T) {
	created := time.Date(2026, 8, 5, 9, 30, 0, 0, time.UTC)
	svc := &stubMovementService{all: []models.Movement{
		{
			Type:           enums.MovementIn,
			Area:           &models.Area{ID: 1, Name: "Administrativa"},
			IceQuantity:    10,
			BottleQuantity: 2,
			CreatedAt:      created,
		},
	}}
	handler := EntriesReport(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/entries?start=2026-08-01&end=2026-08-31", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data entriesReportResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(envelope.Data.Entries))
	}
	if envelope.Data.Totals.Ice != 10 || envelope.Data.Totals.Bottle != 2 {
		t.Fatalf("totals = %+v", envelope.Data.Totals)
	}
	if len(envelope.Data.Timeline) != 1 {
		t.Fatalf("timeline = %+v", envelope.Data.Timeline)
	}
}

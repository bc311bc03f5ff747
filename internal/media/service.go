// Package media validates and stores movement photos, re-encoding
// oversized uploads before they leave the server.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	neturl "net/url"
	"path"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/sitestock/sitestock-backend/pkg/config"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
)

var allowedMimeTypes = []string{"image/jpeg", "image/png", "image/webp"}

type objectStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service exposes the photo upload pipeline.
type Service interface {
	Store(ctx context.Context, fileName string, file io.Reader) (*UploadResult, error)
	Remove(ctx context.Context, publicURL string) error
}

type service struct {
	store objectStore
	logg  *logger.Logger
	cfg   config.MediaConfig
}

// NewService builds the media service with the provided object store.
func NewService(store objectStore, logg *logger.Logger, cfg config.MediaConfig) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 * 1024 * 1024
	}
	if cfg.CompressThreshold <= 0 {
		cfg.CompressThreshold = 500 * 1024
	}
	if cfg.MaxStoredBytes <= 0 {
		cfg.MaxStoredBytes = 2 * 1024 * 1024
	}
	if cfg.ImageMaxWidth <= 0 {
		cfg.ImageMaxWidth = 1200
	}
	if cfg.ImageMaxHeight <= 0 {
		cfg.ImageMaxHeight = 1200
	}
	if cfg.ImageQuality <= 0 || cfg.ImageQuality > 100 {
		cfg.ImageQuality = 80
	}
	return &service{store: store, logg: logg, cfg: cfg}, nil
}

// UploadResult is the wire shape returned after a stored upload.
type UploadResult struct {
	URL        string            `json:"url"`
	MimeType   string            `json:"mime_type"`
	Size       int64             `json:"size"`
	Compressed bool              `json:"compressed"`
	Stats      *CompressionStats `json:"compression,omitempty"`
}

// Store validates the upload, compresses it when it exceeds the
// threshold, and writes it to the object store. The returned URL is
// what callers persist as the movement's image reference.
func (s *service) Store(ctx context.Context, fileName string, file io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read upload")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "la imagen supera el tamaño máximo permitido").
			WithDetails([]string{fmt.Sprintf("Máximo permitido: %d MB", s.cfg.MaxUploadBytes/(1024*1024))})
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el archivo está vacío")
	}

	detected := mimetype.Detect(data)
	if !isAllowedMime(detected.String()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "solo se permiten imágenes").
			WithDetails([]string{fmt.Sprintf("Tipo recibido: %s", detected.String())})
	}

	result := &UploadResult{MimeType: detected.String()}

	if int64(len(data)) > s.cfg.CompressThreshold {
		compressed, stats, err := compress(data, s.cfg.ImageMaxWidth, s.cfg.ImageMaxHeight, s.cfg.ImageQuality)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no se pudo procesar la imagen")
		}
		data = compressed
		result.MimeType = "image/jpeg"
		result.Compressed = true
		result.Stats = &stats
	}

	if int64(len(data)) > s.cfg.MaxStoredBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "la imagen sigue siendo demasiado grande tras la compresión").
			WithDetails([]string{fmt.Sprintf("Máximo almacenable: %d MB", s.cfg.MaxStoredBytes/(1024*1024))})
	}

	object := buildObjectKey(uuid.New(), fileName, result.MimeType)
	url, err := s.store.Upload(ctx, "", object, result.MimeType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}

	result.URL = url
	result.Size = int64(len(data))

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"object":     object,
			"size":       result.Size,
			"compressed": result.Compressed,
		})
		s.logg.Info(logCtx, "movement photo stored")
	}

	return result, nil
}

// Remove deletes the object a stored public URL points at. The URL
// path carries the bucket as its first segment and the object key as
// the rest.
func (s *service) Remove(ctx context.Context, publicURL string) error {
	bucket, object, err := parseObjectURL(publicURL)
	if err != nil {
		return err
	}
	if err := s.store.DeleteObject(ctx, bucket, object); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"object": object})
		s.logg.Info(logCtx, "movement photo removed")
	}
	return nil
}

func parseObjectURL(raw string) (string, string, error) {
	parsed, err := neturl.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "la URL de la imagen no es válida")
	}
	segments := strings.SplitN(strings.TrimPrefix(parsed.EscapedPath(), "/"), "/", 2)
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "la URL de la imagen no es válida")
	}
	object, err := neturl.PathUnescape(segments[1])
	if err != nil {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "la URL de la imagen no es válida")
	}
	return segments[0], object, nil
}

func isAllowedMime(mimeType string) bool {
	for _, candidate := range allowedMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(id uuid.UUID, fileName, mimeType string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String() + extensionFor(mimeType)
	}
	return fmt.Sprintf("movements/%s/%s", id.String(), cleanName)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}

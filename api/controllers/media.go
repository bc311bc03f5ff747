package controllers

import (
	"errors"
	"net/http"

	"github.com/sitestock/sitestock-backend/api/responses"
	"github.com/sitestock/sitestock-backend/internal/media"
	"github.com/sitestock/sitestock-backend/pkg/config"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
)

const multipartFormOverhead = 64 * 1024

// UploadPhoto accepts a multipart form with a single "file" part and
// stores it through the media pipeline. The returned URL is what the
// client submits with the movement.
func UploadPhoto(svc media.Service, logg *logger.Logger, cfg config.MediaConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		maxBytes := cfg.MaxUploadBytes
		if maxBytes <= 0 {
			maxBytes = 5 * 1024 * 1024
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartFormOverhead)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "la imagen supera el tamaño máximo permitido"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "se requiere un archivo en el campo 'file'"))
			return
		}
		defer file.Close()

		result, err := svc.Store(r.Context(), header.Filename, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// DeletePhoto removes a previously stored photo by its public URL,
// passed as the "url" query parameter. Used when a client discards a
// movement after uploading its photo.
func DeletePhoto(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		url := r.URL.Query().Get("url")
		if url == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "se requiere el parámetro 'url'"))
			return
		}

		if err := svc.Remove(r.Context(), url); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

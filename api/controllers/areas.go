package controllers

import (
	"net/http"

	"github.com/sitestock/sitestock-backend/api/responses"
	"github.com/sitestock/sitestock-backend/api/validators"
	"github.com/sitestock/sitestock-backend/internal/areas"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
)

type areaCreateRequest struct {
	Name string `json:"name"`
}

func ListAreas(svc areas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "area service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func CreateArea(svc areas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "area service unavailable"))
			return
		}

		var payload areaCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), validators.SanitizeString(payload.Name, 120))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

package controllers

import (
	"net/http"

	"github.com/sitestock/sitestock-backend/api/middleware"
	"github.com/sitestock/sitestock-backend/api/responses"
	"github.com/sitestock/sitestock-backend/api/validators"
	"github.com/sitestock/sitestock-backend/internal/device"
	"github.com/sitestock/sitestock-backend/internal/movements"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
)

// movementSubmitRequest deliberately carries no validate tags. The
// movement service owns field validation so the client sees its
// messages in the order the form checks them.
type movementSubmitRequest struct {
	Type           string  `json:"type"`
	AreaID         *int64  `json:"area_id"`
	IceQuantity    int     `json:"ice_quantity"`
	BottleQuantity int     `json:"bottle_quantity"`
	ImageURL       string  `json:"image_url"`
	Notes          *string `json:"notes"`
	Passcode       string  `json:"passcode"`
}

// SubmitMovement records one entry or exit movement.
func SubmitMovement(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		var payload movementSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := movements.SubmitInput{
			Type:           payload.Type,
			AreaID:         payload.AreaID,
			IceQuantity:    payload.IceQuantity,
			BottleQuantity: payload.BottleQuantity,
			ImageURL:       payload.ImageURL,
			Notes:          payload.Notes,
			Passcode:       payload.Passcode,
			ClientID:       middleware.ClientIDFromContext(r.Context()),
			Device:         device.FromRequest(r),
		}

		recorded, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, recorded)
	}
}

// ListMovements returns the most recent movements, newest first.
func ListMovements(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

package controllers

import (
	"net/http"

	"github.com/sitestock/sitestock-backend/api/responses"
	"github.com/sitestock/sitestock-backend/api/validators"
	"github.com/sitestock/sitestock-backend/internal/areas"
	"github.com/sitestock/sitestock-backend/internal/movements"
	"github.com/sitestock/sitestock-backend/internal/reports"
	pkgerrors "github.com/sitestock/sitestock-backend/pkg/errors"
	"github.com/sitestock/sitestock-backend/pkg/logger"
)

type consumptionReportResponse struct {
	ByArea   []reports.AreaConsumption `json:"by_area"`
	TopAreas []reports.AreaConsumption `json:"top_areas"`
	Totals   reports.Totals            `json:"totals"`
}

type entriesReportResponse struct {
	Entries  []reports.Entry         `json:"entries"`
	Timeline []reports.TimelinePoint `json:"timeline"`
	Totals   reports.Totals          `json:"totals"`
}

// ConsumptionReport aggregates outbound movements per area.
func ConsumptionReport(movSvc movements.Service, areaSvc areas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if movSvc == nil || areaSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report services unavailable"))
			return
		}

		if err := movSvc.Ready(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		topN, err := validators.ParseQueryInt(r, "top", 5, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		all, err := movSvc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		areaList, err := areaSvc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		names := make([]string, 0, len(areaList))
		for _, a := range areaList {
			names = append(names, a.Name)
		}

		byArea := reports.ConsumptionByArea(all, names)
		responses.WriteSuccess(w, consumptionReportResponse{
			ByArea:   byArea,
			TopAreas: reports.TopAreas(byArea, topN),
			Totals:   reports.TotalConsumption(byArea),
		})
	}
}

// EntriesReport lists inbound movements between two calendar dates.
func EntriesReport(movSvc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if movSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report services unavailable"))
			return
		}

		if err := movSvc.Ready(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start, err := validators.ParseQueryDate(r, "start")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := validators.ParseQueryDate(r, "end")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		all, err := movSvc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := reports.EntriesInRange(all, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entriesReportResponse{
			Entries:  entries,
			Timeline: reports.Timeline(entries),
			Totals:   reports.EntryTotals(entries),
		})
	}
}

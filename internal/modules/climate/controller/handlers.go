package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"climate-server/internal/logging"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/service"
	"climate-server/internal/modules/climate/types"
	"climate-server/internal/utils"
)

var indexRoutes = []string{
	APIPrefix + "/precipitation",
	APIPrefix + "/precipitation/summary",
	APIPrefix + "/stations",
	APIPrefix + "/tobs",
	APIPrefix + "/<start>",
	APIPrefix + "/<start>/<end>",
	APIPrefix + "/stations/<station>/extremes?start=&end=",
	APIPrefix + "/normals/<MM-DD>",
	APIPrefix + "/normals?start=&end=",
	APIPrefix + "/rainfall?start=&end=",
}

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("Welcome to the Climate API\n\nAvailable routes:\n")
	for _, route := range indexRoutes {
		b.WriteString(route)
		b.WriteByte('\n')
	}
	b.WriteString("\nDates are YYYY-MM-DD.\n")
	utils.WriteText(w, http.StatusOK, b.String())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	merge, err := service.ParseMergePolicy(r.URL.Query().Get("merge"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	byDate, err := c.service.Precipitation(r.Context(), merge)
	if err != nil {
		writeServiceError(w, r, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, byDate)
}

func (c *climateControllerImpl) handlePrecipitationSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.service.PrecipitationSummary(r.Context())
	if err != nil {
		writeServiceError(w, r, "precipitation summary", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	counts, err := c.service.StationCounts(r.Context())
	if err != nil {
		writeServiceError(w, r, "stations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, counts)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	obs, err := c.service.MostActiveTemperatures(r.Context())
	if err != nil {
		writeServiceError(w, r, "tobs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, obs)
}

func (c *climateControllerImpl) handleRangeStats(w http.ResponseWriter, r *http.Request) {
	start, err := parseDate("start", chi.URLParam(r, "start"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var end *types.Date
	if raw := chi.URLParam(r, "end"); raw != "" {
		d, err := parseDate("end", raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		end = &d
	}

	stats, err := c.service.RangeStats(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, "range stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStationExtremes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "station")
	if err := validateStationID(id); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseRangeQuery(r, false)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := c.service.StationExtremes(r.Context(), id, start, end)
	if err != nil {
		writeServiceError(w, r, "station extremes", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stationExtremesBody(id, start, end, stats))
}

func (c *climateControllerImpl) handleDailyNormal(w http.ResponseWriter, r *http.Request) {
	key, err := parseMonthDay(chi.URLParam(r, "monthday"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := c.service.DailyNormal(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, "daily normal", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, dailyNormalBody(key, stats))
}

func (c *climateControllerImpl) handleTripNormals(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRangeQuery(r, true)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	normals, err := c.service.TripNormals(r.Context(), *start, *end)
	if err != nil {
		writeServiceError(w, r, "trip normals", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, normals)
}

func (c *climateControllerImpl) handleRainfall(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRangeQuery(r, true)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rainfall, err := c.service.Rainfall(r.Context(), *start, *end)
	if err != nil {
		writeServiceError(w, r, "rainfall", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rainfall)
}

// writeServiceError maps service and store errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrTripTooLong),
		errors.Is(err, service.ErrInvalidMerge):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrStationNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	default:
		logging.FromContext(r.Context()).Error(op+" failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to query observations")
	}
}

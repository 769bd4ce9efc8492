package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"climate-server/internal/modules/climate/service"
)

// APIPrefix is the mount point of every JSON route.
const APIPrefix = "/api/v1.0"

type ClimateController interface {
	// RegisterRoutes mounts the index at "/" and the JSON API under APIPrefix.
	// apiMiddleware applies to the API routes only.
	RegisterRoutes(r chi.Router, apiMiddleware ...func(http.Handler) http.Handler)
}

type climateControllerImpl struct {
	service service.ClimateService
}

func NewClimateController(service service.ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

func (c *climateControllerImpl) RegisterRoutes(r chi.Router, apiMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/", c.handleIndex)
	r.Route(APIPrefix, func(api chi.Router) {
		api.Use(apiMiddleware...)
		api.Get("/precipitation", c.handlePrecipitation)
		api.Get("/precipitation/summary", c.handlePrecipitationSummary)
		api.Get("/stations", c.handleStations)
		api.Get("/stations/{station}/extremes", c.handleStationExtremes)
		api.Get("/tobs", c.handleTobs)
		api.Get("/normals", c.handleTripNormals)
		api.Get("/normals/{monthday}", c.handleDailyNormal)
		api.Get("/rainfall", c.handleRainfall)
		// Static segments above win over these.
		api.Get("/{start}", c.handleRangeStats)
		api.Get("/{start}/{end}", c.handleRangeStats)
	})
}

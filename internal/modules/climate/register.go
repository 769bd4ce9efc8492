package climate

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"climate-server/internal/modules/climate/controller"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/service"
)

func RegisterFeature(r chi.Router, db *sql.DB, maxTripDays int, apiMiddleware ...func(http.Handler) http.Handler) {
	climateReader := repository.NewReader(db)
	climateService := service.NewService(climateReader, maxTripDays)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(r, apiMiddleware...)
}

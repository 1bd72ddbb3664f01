package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/internal/app/service"
	apperrors "github.com/ikkim/userhub-backend/internal/errors"
	"github.com/ikkim/userhub-backend/internal/middleware"
	"github.com/ikkim/userhub-backend/internal/query"
	"github.com/ikkim/userhub-backend/internal/response"
)

type LocationController struct {
	locationService service.LocationService
}

func NewLocationController(locationService service.LocationService) *LocationController {
	return &LocationController{locationService: locationService}
}

// Provinces GET /api/locations/provinces
func (ctrl *LocationController) Provinces(c *gin.Context) {
	items, page, err := ctrl.locationService.Provinces(c.Request.URL.Query())
	ctrl.respond(c, "Provinces retrieved successfully.", items, page, err)
}

// Regencies GET /api/locations/regencies
func (ctrl *LocationController) Regencies(c *gin.Context) {
	items, page, err := ctrl.locationService.Regencies(c.Request.URL.Query())
	ctrl.respond(c, "Regencies retrieved successfully.", items, page, err)
}

// Districts GET /api/locations/districts
func (ctrl *LocationController) Districts(c *gin.Context) {
	items, page, err := ctrl.locationService.Districts(c.Request.URL.Query())
	ctrl.respond(c, "Districts retrieved successfully.", items, page, err)
}

// Villages GET /api/locations/villages
func (ctrl *LocationController) Villages(c *gin.Context) {
	items, page, err := ctrl.locationService.Villages(c.Request.URL.Query())
	ctrl.respond(c, "Villages retrieved successfully.", items, page, err)
}

func (ctrl *LocationController) respond(c *gin.Context, message string, items interface{}, page *query.Page, err error) {
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list locations", err, map[string]interface{}{
			"path": c.FullPath(),
		})
		apperrors.InternalError(c, "")
		return
	}
	response.Paginated(c, message, items, page)
}

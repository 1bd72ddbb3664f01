package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/internal/app/service"
	apperrors "github.com/ikkim/userhub-backend/internal/errors"
	"github.com/ikkim/userhub-backend/internal/middleware"
	"github.com/ikkim/userhub-backend/internal/response"
)

type RoleController struct {
	roleService service.RoleService
}

func NewRoleController(roleService service.RoleService) *RoleController {
	return &RoleController{roleService: roleService}
}

type RoleResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// List returns every role
// GET /api/roles
func (ctrl *RoleController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	roles, err := ctrl.roleService.ListRoles()
	if err != nil {
		log.Error("Failed to list roles", err)
		apperrors.InternalError(c, "")
		return
	}

	items := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		items = append(items, RoleResponse{ID: r.ID, Name: r.Name})
	}
	response.OK(c, "Roles retrieved successfully.", items)
}

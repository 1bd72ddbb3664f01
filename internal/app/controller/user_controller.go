package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/internal/app/service"
	apperrors "github.com/ikkim/userhub-backend/internal/errors"
	"github.com/ikkim/userhub-backend/internal/middleware"
	"github.com/ikkim/userhub-backend/internal/response"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	apperrors.RegisterValidators()
	return &UserController{userService: userService}
}

type CreateUserRequest struct {
	Name     string   `json:"name" binding:"required,max=255"`
	Email    string   `json:"email" binding:"required,email,max=255"`
	Password string   `json:"password" binding:"required,min=6"`
	Roles    []string `json:"roles" binding:"omitempty,dive,required"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Role     *string `json:"role" binding:"omitempty"`
}

// List returns a page of users
// GET /api/users
func (ctrl *UserController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	users, page, err := ctrl.userService.List(c.Request.URL.Query())
	if err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			apperrors.NotFound(c, apperrors.CodeNotFound, "Role not found.")
			return
		}
		log.Error("Failed to list users", err)
		apperrors.InternalError(c, "")
		return
	}

	response.Paginated(c, "Users retrieved successfully.", users, page)
}

// Show returns one user with its roles
// GET /api/users/:id
func (ctrl *UserController) Show(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := ctrl.userService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.CodeNotFound, "User not found.")
			return
		}
		log.Error("Failed to get user", err, map[string]interface{}{
			"user_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	response.OK(c, "User retrieved successfully.", user)
}

// Create stores a user with the given roles
// POST /api/users
func (ctrl *UserController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.Create(service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.FieldInvalid(c, "email", "The email has already been taken")
		case errors.Is(err, service.ErrRoleNotFound):
			apperrors.FieldInvalid(c, "roles", "The selected roles is invalid")
		default:
			log.Error("Failed to create user", err)
			apperrors.ParseAndRespond(c, err, "create user")
		}
		return
	}

	response.Created(c, "User created successfully.", user)
}

// Update changes the given fields of a user
// PUT /api/users/:id
func (ctrl *UserController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.userService.Update(id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.CodeNotFound, "User not found.")
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.FieldInvalid(c, "email", "The email has already been taken")
		case errors.Is(err, service.ErrRoleNotFound):
			apperrors.FieldInvalid(c, "role", "The selected role is invalid")
		default:
			log.Error("Failed to update user", err, map[string]interface{}{
				"user_id": id,
			})
			apperrors.ParseAndRespond(c, err, "update user")
		}
		return
	}

	response.OK(c, "User updated successfully.", user)
}

// Delete removes a user
// DELETE /api/users/:id
func (ctrl *UserController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := ctrl.userService.Delete(id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.CodeNotFound, "User not found.")
			return
		}
		log.Error("Failed to delete user", err, map[string]interface{}{
			"user_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	response.OK(c, "User deleted successfully.", nil)
}

// parseUserID responds with 404 when the path id is not a positive integer.
func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		apperrors.NotFound(c, apperrors.CodeNotFound, "User not found.")
		return 0, false
	}
	return uint(id), true
}

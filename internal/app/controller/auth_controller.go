package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/service"
	apperrors "github.com/ikkim/userhub-backend/internal/errors"
	"github.com/ikkim/userhub-backend/internal/middleware"
	"github.com/ikkim/userhub-backend/internal/response"
)

type AuthController struct {
	authService          service.AuthService
	passwordResetService service.PasswordResetService
}

func NewAuthController(authService service.AuthService, passwordResetService service.PasswordResetService) *AuthController {
	apperrors.RegisterValidators()
	return &AuthController{
		authService:          authService,
		passwordResetService: passwordResetService,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,strong_password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email                   string `json:"email" binding:"required,email"`
	Token                   string `json:"token" binding:"required"`
	NewPassword             string `json:"new_password" binding:"required,strong_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation" binding:"omitempty,eqfield=NewPassword"`
}

// UserSummary is the public part of a user returned by the auth endpoints.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	User  UserSummary `json:"user"`
	Roles []string    `json:"roles"`
	Token string      `json:"token,omitempty"`
}

func newUserSummary(u *model.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Register handles user registration
// POST /api/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	result, err := ctrl.authService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.FieldInvalid(c, "email", "The email has already been taken")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, err, "create user")
		return
	}

	response.Created(c, "User registered successfully.", AuthResponse{
		User:  newUserSummary(result.User),
		Roles: result.Roles,
		Token: result.Token,
	})
}

// Login handles user login
// POST /api/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	result, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.Unauthorized(c, "Please check your email and password.")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "")
		return
	}

	response.OK(c, "User logged in successfully.", AuthResponse{
		User:  newUserSummary(result.User),
		Roles: result.Roles,
		Token: result.Token,
	})
}

// Logout revokes the token used for the request
// POST /api/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tokenID, ok := middleware.GetTokenID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(tokenID); err != nil {
		log.Error("Logout failed", err)
		apperrors.InternalError(c, "")
		return
	}

	response.OK(c, "User logged out successfully.", nil)
}

// User returns the authenticated user
// GET /api/user
func (ctrl *AuthController) User(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUser(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.CodeNotFound, "User not found.")
			return
		}
		log.Error("Failed to load user", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	response.OK(c, "User retrieved successfully.", AuthResponse{
		User:  newUserSummary(user),
		Roles: user.RoleNames(),
	})
}

// RequestPasswordReset mails a reset code
// POST /api/reset-password-request
func (ctrl *AuthController) RequestPasswordReset(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	if err := ctrl.passwordResetService.RequestCode(req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.CodeResetPasswordFailed, "User not found.")
		case errors.Is(err, service.ErrResetMailFailed):
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.CodeResetPasswordFailed, "Failed to send reset password code.")
		default:
			log.Error("Password reset request failed", err)
			apperrors.InternalError(c, "")
		}
		return
	}

	response.OK(c, "Reset password code sent successfully.", nil)
}

// VerifyOTP exchanges a reset code for a reset token
// POST /api/verify-otp
func (ctrl *AuthController) VerifyOTP(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	grant, err := ctrl.passwordResetService.VerifyCode(req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOTP):
			apperrors.Unauthorized(c, "Invalid email or code.")
		case errors.Is(err, service.ErrOTPExpired):
			apperrors.Expired(c, "The code has expired. Please request a new one.")
		default:
			log.Error("Reset code verification failed", err)
			apperrors.InternalError(c, "")
		}
		return
	}

	response.OK(c, "Code verified successfully.", grant)
}

// ResetPassword sets a new password using a reset token
// POST /api/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	if err := ctrl.passwordResetService.ResetPassword(req.Email, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			apperrors.InvalidToken(c, "The reset token is invalid.")
		case errors.Is(err, service.ErrResetTokenExpired):
			apperrors.Expired(c, "The reset token has expired. Please request a new code.")
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.CodeResetPasswordFailed, "User not found.")
		default:
			log.Error("Password reset failed", err)
			apperrors.InternalError(c, "Failed to reset password.")
		}
		return
	}

	response.OK(c, "Password reset successfully.", nil)
}

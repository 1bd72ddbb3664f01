package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/userhub-backend/internal/errors"
	"github.com/ikkim/userhub-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	TokenIDKey   = "token_id"
)

// TokenAuthenticator validates a bearer token, including revocation.
type TokenAuthenticator interface {
	Authenticate(token string) (*util.Claims, error)
}

// RoleChecker answers role membership questions for RequireRole.
type RoleChecker interface {
	HasAnyRole(userID uint, names ...string) (bool, error)
}

type AuthMiddleware struct {
	authenticator TokenAuthenticator
	roles         RoleChecker
}

func NewAuthMiddleware(authenticator TokenAuthenticator, roles RoleChecker) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		roles:         roles,
	}
}

// Authenticate requires a valid, unrevoked "Authorization: Bearer <token>".
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.AbortUnauthorized(c, "Unauthenticated")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.AbortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := m.authenticator.Authenticate(parts[1])
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.AbortUnauthorized(c, "Token has expired")
			} else {
				apperrors.AbortUnauthorized(c, "Unauthenticated")
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(TokenIDKey, claims.TokenID)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
		})

		c.Next()
	}
}

// RequireRole lets the request through when the user holds any of roles.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		userID, ok := GetUserID(c)
		if !ok {
			apperrors.AbortUnauthorized(c, "")
			return
		}

		allowed, err := m.roles.HasAnyRole(userID, roles...)
		if err != nil {
			log.Error("Failed to check user roles", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.AbortInternal(c)
			return
		}
		if !allowed {
			log.Warn("Insufficient permissions", map[string]interface{}{
				"user_id":        userID,
				"required_roles": roles,
				"path":           c.Request.URL.Path,
			})
			apperrors.AbortForbidden(c, "")
			return
		}

		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetTokenID extracts the id of the access token used for the request
func GetTokenID(c *gin.Context) (string, bool) {
	tokenID, exists := c.Get(TokenIDKey)
	if !exists {
		return "", false
	}
	s, ok := tokenID.(string)
	return s, ok
}

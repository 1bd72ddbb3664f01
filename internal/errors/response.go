package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/internal/response"
)

// RespondWithError writes an error envelope.
// statusCode: HTTP status code
// errorCode: one of the codes in codes.go
// message: human readable message, never internal detail
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	response.Fail(c, statusCode, errorCode, message, nil)
}

// Shorthands for the common cases

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthenticated"
	}
	RespondWithError(c, http.StatusUnauthorized, CodeAuthenticationFailed, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	RespondWithError(c, http.StatusForbidden, CodeForbidden, message)
}

func InvalidToken(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, CodeInvalidToken, message)
}

func Expired(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, CodeExpired, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	RespondWithError(c, http.StatusTooManyRequests, CodeTooManyRequests, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong, please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, CodeServerError, message)
}

// RespondWithValidationError writes a 422 with one entry per invalid field.
func RespondWithValidationError(c *gin.Context, fields []response.FieldError) {
	errs := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		errs = append(errs, f)
	}
	response.Fail(c, http.StatusUnprocessableEntity, CodeValidationFailed, "The given data was invalid", errs)
}

// FieldInvalid is RespondWithValidationError for a single field.
func FieldInvalid(c *gin.Context, field, message string) {
	RespondWithValidationError(c, []response.FieldError{{Field: field, Message: message}})
}

// RespondWithBindError translates a ShouldBindJSON error into a 422.
func RespondWithBindError(c *gin.Context, err error) {
	RespondWithValidationError(c, TranslateBindError(err))
}

// Abort variants for middleware

func AbortUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthenticated"
	}
	response.AbortWithFail(c, http.StatusUnauthorized, CodeAuthenticationFailed, message)
}

func AbortForbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	response.AbortWithFail(c, http.StatusForbidden, CodeForbidden, message)
}

func AbortTooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	response.AbortWithFail(c, http.StatusTooManyRequests, CodeTooManyRequests, message)
}

func AbortInternal(c *gin.Context) {
	response.AbortWithFail(c, http.StatusInternalServerError, CodeServerError, "Something went wrong, please try again later")
}

package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo is a safe, client facing description of an error
type ErrorInfo struct {
	Status  int    // HTTP status
	Code    string // error code (see codes.go)
	Field   string // offending request field, if known
	Message string // user friendly message
}

// ParseError maps persistence errors to a safe message. Constraint names and
// SQL never reach the client. context names the operation, e.g. "create user".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    CodeServerError,
			Message: "Something went wrong, please try again later",
		}
	}

	errLower := strings.ToLower(err.Error())

	// 1. gorm sentinels
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    CodeNotFound,
			Message: getNotFoundMessage(context),
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(errLower)
	}

	// 2. PostgreSQL (23505, 23503, 23502) and SQLite constraint errors
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}
	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    CodeConflict,
			Message: "The record is referenced by other data",
		}
	}
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{
			Status:  http.StatusUnprocessableEntity,
			Code:    CodeValidationFailed,
			Message: "A required field is missing",
		}
	}

	// 3. default
	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    CodeServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") {
		return ErrorInfo{
			Status:  http.StatusUnprocessableEntity,
			Code:    CodeValidationFailed,
			Field:   "email",
			Message: "The email has already been taken",
		}
	}
	if strings.Contains(errLower, "roles") && strings.Contains(errLower, "name") {
		return ErrorInfo{
			Status:  http.StatusUnprocessableEntity,
			Code:    CodeValidationFailed,
			Field:   "name",
			Message: "The role already exists",
		}
	}

	return ErrorInfo{
		Status:  http.StatusConflict,
		Code:    CodeConflict,
		Message: "The record already exists",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "user"):
		return "User not found"
	case strings.Contains(contextLower, "role"):
		return "Role not found"
	case strings.Contains(contextLower, "token"):
		return "Token not found"
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Could not create the record, please try again later"
	case strings.Contains(contextLower, "update"):
		return "Could not update the record, please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Could not delete the record, please try again later"
	}
	return "Something went wrong, please try again later"
}

// ParseAndRespond writes the envelope for ParseError(err, context).
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	if info.Field != "" {
		FieldInvalid(c, info.Field, info.Message)
		return
	}
	RespondWithError(c, info.Status, info.Code, info.Message)
}

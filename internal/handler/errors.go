package handler

import (
	"errors"
	"net/http"

	"workspace/internal/dto"
	"workspace/internal/middleware"
	"workspace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// codeFor maps a service error to the code of the error body.
func codeFor(err error) string {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return dto.CodeUnauthorized
	case errors.Is(err, service.ErrInvalidOperation):
		return dto.CodeInvalidOperation
	case errors.Is(err, service.ErrValidation):
		return dto.CodeValidation
	case errors.Is(err, service.ErrNotFound):
		return dto.CodeNotFound
	case errors.Is(err, service.ErrDependency):
		return dto.CodeDependency
	default:
		return dto.CodeTransaction
	}
}

// writeError sends the error body and records err for the request logger.
// Server side failures do not leak their detail to the caller.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "Operation failed and was rolled back"
	case http.StatusServiceUnavailable:
		msg = "Storage is unavailable"
	}
	c.JSON(status, gin.H{"error": msg, "code": codeFor(err)})
}

// currentUser reads the identity set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "code": dto.CodeUnauthorized})
		return "", false
	}
	return userID, true
}

// pathUUID parses a uuid path parameter, answering 400 when it is malformed.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// badRequest answers 400 for input rejected before reaching a service.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": dto.CodeValidation})
}

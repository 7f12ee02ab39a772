package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/http/middleware"
)

// statusFor maps domain errors to HTTP status codes and public messages
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrDuplicatePhone):
		return http.StatusConflict, "Phone number already in use"
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict, "Username already exists"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access Denied"
	case errors.Is(err, domain.ErrInvalidEnum), errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrForeignKeyViolation):
		return http.StatusUnprocessableEntity, "Referenced entity does not exist"
	case errors.Is(err, domain.ErrStoreBusy):
		return http.StatusServiceUnavailable, "Store is busy, try again"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// respondError writes the error response and records err for the request log
func respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

// badRequest reports a malformed request
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// caller returns the identity set by the session middleware. Handlers are
// only mounted behind that middleware, so a missing identity is a 401.
func caller(c *gin.Context) (domain.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	}
	return identity, ok
}

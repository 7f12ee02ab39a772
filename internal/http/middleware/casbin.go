package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fardapack/fardapack-crm/domain"
)

// CasbinMW gates routes on the role permissions held by the policy service
type CasbinMW struct {
	policySvc domain.PolicyService
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policySvc domain.PolicyService) *CasbinMW {
	return &CasbinMW{policySvc: policySvc}
}

// Require allows the request only when the caller's role may perform
// action on resource. It must run after the session middleware.
func (mw *CasbinMW) Require(resource, action string) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Caller identity not found"})
			return
		}

		err := mw.policySvc.Authorize(identity, resource, action)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, domain.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		case errors.Is(err, domain.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
		}
	})
}

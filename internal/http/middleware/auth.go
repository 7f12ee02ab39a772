package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fardapack/fardapack-crm/domain"
)

// Context keys set by the session middleware
const (
	ContextIdentity     = "identity"
	ContextSessionToken = "session_token"
)

// AuthMW wraps the auth service for middleware
type AuthMW struct {
	authSvc domain.AuthService
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(authSvc domain.AuthService) *AuthMW {
	return &AuthMW{authSvc: authSvc}
}

// WithSession returns the session middleware function
func (mw *AuthMW) WithSession() gin.HandlerFunc {
	return AuthMiddleware(mw.authSvc)
}

// IdentityFrom returns the caller established by the session middleware
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

// TokenFrom returns the session token of the current request
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextSessionToken)
}

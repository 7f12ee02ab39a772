package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/http/middleware"
)

// AuthHandlers handles session and account HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc}
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateAccountRequest represents account creation request
type CreateAccountRequest struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
	Role            string `json:"role,omitempty"`
	LinkedContactID *uint  `json:"linked_contact_id,omitempty"`
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"token":      result.Token,
			"token_type": "Bearer",
			"expires_at": result.ExpiresAt,
			"account": gin.H{
				"id":       result.AccountID,
				"username": result.Username,
				"role":     result.Role,
			},
		},
	})
}

// Logout ends the session of the current request
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.authSvc.Logout(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out successfully"}})
}

// Me returns the account of the current session
func (h *AuthHandlers) Me(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	account, err := h.authSvc.GetAccount(c.Request.Context(), identity.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toAccountResponse(*account)})
}

// ListAccounts returns every account, agents first
func (h *AuthHandlers) ListAccounts(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	accounts, err := h.authSvc.ListAccounts(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// CreateAccount registers a new login
func (h *AuthHandlers) CreateAccount(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.authSvc.CreateAccount(c.Request.Context(), identity, domain.NewAccount{
		Username:        req.Username,
		Password:        req.Password,
		Role:            domain.Role(req.Role),
		LinkedContactID: req.LinkedContactID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": toAccountResponse(*account)})
}

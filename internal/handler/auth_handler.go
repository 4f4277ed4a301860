package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_payments/internal/service"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

// AdminAuthenticator issues admin tokens.
type AdminAuthenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	auth AdminAuthenticator
}

func NewAuthHandler(auth AdminAuthenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccountInactive) {
			utils.Error(c, http.StatusForbidden, "ACCOUNT_INACTIVE", "Account is inactive")
			return
		}
		utils.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}

	utils.Success(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
	})
}

package api

import (
	"noxscan/config"
	"noxscan/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Token exchanges the configured API key for a short-lived JWT.
// POST /api/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req struct {
		APIKey string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash := config.GetConfig().Auth.APIKeyHash
	if hash == "" {
		utils.BadRequest(c, "authentication is disabled on this instance")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.APIKey)); err != nil {
		utils.Unauthorized(c, "invalid API key")
		return
	}

	token, err := utils.GenerateToken("dashboard")
	if err != nil {
		utils.InternalError(c, "failed to issue token")
		return
	}
	utils.Success(c, gin.H{"token": token})
}

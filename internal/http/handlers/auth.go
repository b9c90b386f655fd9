package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/maia-backend/internal/http/response"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (ah *AuthHandler) token(accessToken string) tokenResponse {
	return tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(ah.authService.GetAccessTTL().Seconds()),
	}
}

// POST /auth/token (form: username, password)
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `form:"username" binding:"required"`
		Password string `form:"password" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondAPIError(c, apierr.InvalidRequest("username and password are required"))
		return
	}
	accessToken, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, ah.token(accessToken))
}

// POST /auth/signup
func (ah *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.InvalidRequest("invalid request body: %v", err))
		return
	}
	accessToken, err := ah.authService.Signup(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ah.token(accessToken))
}

// GET /auth/me
func (ah *AuthHandler) Me(c *gin.Context) {
	user, err := ah.authService.Me(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"role":         user.Role,
		"full_name":    user.FullName,
		"phone_number": user.PhoneNumber,
	})
}

package handler

import (
	"net/http"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"required,oneof=client freelancer"`
	FirstName string `json:"firstName" binding:"max=50"`
	LastName  string `json:"lastName" binding:"max=50"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// loginResponse flattens the user next to the access token
type loginResponse struct {
	*models.User
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("username", req.Username),
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      models.RoleName(req.Role),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", user)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.EmailOrUsername, req.Password, service.ClientContext{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)

	respond(c, http.StatusOK, "Login successful", loginResponse{
		User:        pair.User,
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	})
}

// POST /api/auth/refresh-token
// The token comes from the body, falling back to the cookie.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}

	pair, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)

	respond(c, http.StatusOK, "Token refreshed successfully", tokenResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	token, _ := c.Cookie(refreshCookieName)
	if token == "" {
		token = req.RefreshToken
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		_ = c.Error(err)
		return
	}

	h.clearRefreshCookie(c)
	respond(c, http.StatusOK, "Logout successful", nil)
}

// POST /api/auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	revoked, err := h.authService.LogoutAll(c.Request.Context(), actor.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.clearRefreshCookie(c)
	respond(c, http.StatusOK, "Logged out from all devices", gin.H{"revoked": revoked})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		refreshCookieName,
		token,
		int(h.authService.RefreshTTL().Seconds()),
		"/",
		"",
		h.authService.IsProduction(), // secure (HTTPS-only in production)
		true,                         // httpOnly
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.authService.IsProduction(), true)
}

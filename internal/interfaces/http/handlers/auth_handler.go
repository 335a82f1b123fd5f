package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/interfaces/http/middleware"
	"chamado.backend/internal/interfaces/http/response"
	"chamado.backend/internal/usecases"
)

const (
	accessCookie  = "token"
	refreshCookie = "refresh_token"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	sessions *usecases.SessionUsecase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *usecases.SessionUsecase) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	h.authenticate(c, entities.AuthModeLogin)
}

// Signup handles account creation
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	h.authenticate(c, entities.AuthModeSignup)
}

func (h *AuthHandler) authenticate(c *gin.Context, mode entities.AuthMode) {
	var input credentialsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	auth, err := h.sessions.Authenticate(c.Request.Context(), &entities.AuthInput{
		Mode:     mode,
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	setAuthCookies(c, auth)
	status := http.StatusOK
	if mode == entities.AuthModeSignup {
		status = http.StatusCreated
	}
	response.Success(c, status, auth)
}

// RefreshToken issues a new token pair for a live session
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var refreshToken string

	if c.Request.ContentLength > 0 {
		var input struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&input); err == nil {
			refreshToken = strings.TrimSpace(input.RefreshToken)
		}
	}
	if refreshToken == "" {
		if cookie, err := c.Cookie(refreshCookie); err == nil {
			refreshToken = cookie
		}
	}
	if refreshToken == "" {
		response.Error(c, domainerrors.BadRequest("Refresh token is required"))
		return
	}

	auth, err := h.sessions.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		response.Error(c, domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeUnauthorized, "Invalid or expired refresh token", err))
		return
	}

	setAuthCookies(c, auth)
	response.Success(c, http.StatusOK, auth)
}

// Logout ends the session bound to the token. Calling it without a session
// succeeds.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sid, ok := middleware.GetSessionID(c); ok {
		if err := h.sessions.Logout(c.Request.Context(), sid); err != nil {
			respondError(c, err)
			return
		}
	}

	c.SetCookie(accessCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func setAuthCookies(c *gin.Context, auth *entities.AuthResponse) {
	c.SetCookie(accessCookie, auth.AccessToken, 3600*24, "/", "", false, true)
	c.SetCookie(refreshCookie, auth.RefreshToken, 3600*24*7, "/", "", false, true)
}

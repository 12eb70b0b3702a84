package v1

import (
	"errors"
	"net/http"

	"github.com/wealthplan/backend/internal/service"
	"github.com/wealthplan/backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

func (h *Handler) initAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	auth.POST("/register", h.userRegister)
	auth.POST("/login", h.userLogin)
	auth.POST("/refresh", h.userRefresh)
	auth.POST("/logout", h.userLogout)
	auth.POST("/logout-all", h.userIdentityMiddleware, h.userLogoutAll)
	auth.GET("/sessions", h.userIdentityMiddleware, h.userSessions)
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=64"`
	FirstName string `json:"first_name" binding:"max=64"`
	LastName  string `json:"last_name" binding:"max=64"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// @Summary Register
// @Tags Auth
// @Description Create a new account
// @Accept  json
// @Produce  json
// @Param input body registerRequest true "account info"
// @Success 201
// @Failure 400 {object} ErrorStruct
// @Router /auth/register [post]
func (h *Handler) userRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	err := h.services.Users.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExist) {
			errorResponse(c, http.StatusBadRequest, UserAlreadyExistsCode)
			return
		}
		logger.Error("register user failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.Status(http.StatusCreated)
}

// @Summary Login
// @Tags Auth
// @Description Exchange credentials for an access/refresh token pair
// @Accept  json
// @Produce  json
// @Param input body loginRequest true "credentials"
// @Success 200 {object} tokensResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Router /auth/login [post]
func (h *Handler) userLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	tokens, err := h.services.Users.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			errorResponse(c, http.StatusUnauthorized, InvalidCredentialsCode)
			return
		}
		logger.Error("login failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.JSON(http.StatusOK, tokensResponse{
		AccessToken:  tokens.AccessToken,
		ExpiresIn:    int64(tokens.AccessTTL.Seconds()),
		RefreshToken: tokens.RefreshToken,
	})
}

// @Summary Refresh
// @Tags Auth
// @Description Exchange a refresh token for a new access token
// @Accept  json
// @Produce  json
// @Param input body refreshRequest true "refresh token"
// @Success 200 {object} tokensResponse
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Router /auth/refresh [post]
func (h *Handler) userRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	tokens, err := h.services.Users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		// Every rejection reads the same to the caller, whatever the
		// internal reason.
		if errors.Is(err, service.ErrSessionNotFoundOrExpired) {
			errorResponse(c, http.StatusUnauthorized, SessionExpiredCode)
			return
		}
		logger.Error("refresh failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.JSON(http.StatusOK, tokensResponse{
		AccessToken:  tokens.AccessToken,
		ExpiresIn:    int64(tokens.AccessTTL.Seconds()),
		RefreshToken: tokens.RefreshToken,
	})
}

// @Summary Logout
// @Tags Auth
// @Description Revoke the session of the given refresh token
// @Accept  json
// @Produce  json
// @Param input body refreshRequest true "refresh token"
// @Success 204
// @Failure 400 {object} ErrorStruct
// @Router /auth/logout [post]
func (h *Handler) userLogout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	if err := h.services.Users.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrSessionNotFoundOrExpired) {
			errorResponse(c, http.StatusUnauthorized, SessionExpiredCode)
			return
		}
		logger.Error("logout failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.Status(http.StatusNoContent)
}

type logoutAllResponse struct {
	RevokedSessions int `json:"revoked_sessions"`
}

// @Summary Logout everywhere
// @Tags Auth
// @Description Revoke every active session of the current user
// @Produce  json
// @Success 200 {object} logoutAllResponse
// @Failure 401
// @Security UserAuth
// @Router /auth/logout-all [post]
func (h *Handler) userLogoutAll(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	revoked, err := h.services.Sessions.RevokeAll(c.Request.Context(), userID)
	if err != nil {
		logger.Error("revoke all sessions failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.JSON(http.StatusOK, logoutAllResponse{RevokedSessions: revoked})
}

type sessionResponse struct {
	DeviceInfo     string `json:"device_info"`
	IP             string `json:"ip"`
	CreatedAt      string `json:"created_at"`
	LastActivityAt string `json:"last_activity_at"`
	ExpiresAt      string `json:"expires_at"`
}

// @Summary Active sessions
// @Tags Auth
// @Description List the current user's active sessions
// @Produce  json
// @Success 200 {array} sessionResponse
// @Failure 401
// @Security UserAuth
// @Router /auth/sessions [get]
func (h *Handler) userSessions(c *gin.Context) {
	userID, err := h.getUserUUID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	sessions, err := h.services.Sessions.ActiveSessions(c.Request.Context(), userID)
	if err != nil {
		logger.Error("list active sessions failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionResponse{
			DeviceInfo:     s.DeviceInfo,
			IP:             s.IP,
			CreatedAt:      s.CreatedAt.Format(timeFormat),
			LastActivityAt: s.LastActivityAt.Format(timeFormat),
			ExpiresAt:      s.ExpiresAt.Format(timeFormat),
		}
	}

	c.JSON(http.StatusOK, out)
}

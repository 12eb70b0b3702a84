package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wealthplan/backend/internal/service"
	"github.com/wealthplan/backend/pkg/auth"
	"github.com/wealthplan/backend/pkg/logger"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	userCtx             = "userId"
)

// userIdentityMiddleware is the authentication gate: it verifies the bearer
// access token cryptographically, then checks the session it is bound to is
// still alive. Every failure is the same opaque 401.
func (h *Handler) userIdentityMiddleware(c *gin.Context) {
	claims, err := h.parseAuthHeader(c)
	if err != nil {
		if !errors.Is(err, auth.ErrTokenExpired) {
			logger.Debug("parse auth header failed", zap.Error(err))
		}
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if _, err := h.services.Sessions.ValidateAccess(c.Request.Context(), claims.ID); err != nil {
		if !errors.Is(err, service.ErrSessionNotFoundOrExpired) {
			logger.Error("validate session failed", zap.Error(err))
		}
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set(userCtx, claims.Subject)
}

func (h *Handler) parseAuthHeader(c *gin.Context) (*auth.Claims, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return nil, errors.New("empty auth header")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return nil, errors.New("invalid auth header")
	}

	if len(headerParts[1]) == 0 {
		return nil, errors.New("token is empty")
	}

	return h.tokenManager.Verify(headerParts[1], auth.KindAccess)
}

func (h *Handler) getUserUUID(c *gin.Context) (uuid.UUID, error) {
	id, ok := c.Get(userCtx)
	if !ok {
		return uuid.Nil, errors.New("user id not found")
	}

	strID, ok := id.(string)
	if !ok {
		return uuid.Nil, errors.New("user id has wrong type")
	}

	return uuid.Parse(strID)
}

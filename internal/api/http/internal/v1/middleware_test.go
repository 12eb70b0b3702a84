package v1

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthplan/backend/internal/config"
	"github.com/wealthplan/backend/internal/domain"
	"github.com/wealthplan/backend/internal/service"
	"github.com/wealthplan/backend/pkg/auth"
)

// stubSessions answers ValidateAccess from a fixed set of live access jtis.
type stubSessions struct {
	service.Sessions

	liveAccessJTIs map[string]uuid.UUID
}

func (s *stubSessions) ValidateAccess(_ context.Context, accessJTI string) (*domain.Session, error) {
	if userID, ok := s.liveAccessJTIs[accessJTI]; ok {
		return &domain.Session{UserID: userID, AccessTokenJTI: accessJTI, IsActive: true}, nil
	}
	return nil, service.ErrSessionNotFoundOrExpired
}

func newTestAuthManager(t *testing.T, accessTTL time.Duration) *auth.Manager {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	m, err := auth.NewManager(config.JWTConfig{
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		PrivateKey:      string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})),
		PublicKey:       string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})),
	})
	require.NoError(t, err)

	return m
}

func newProtectedRouter(tokenManager auth.TokenManager, sessions service.Sessions) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewHandler(&service.Services{Sessions: sessions}, tokenManager, &config.Config{})

	router := gin.New()
	router.GET("/protected", h.userIdentityMiddleware, func(c *gin.Context) {
		userID, err := h.getUserUUID(c)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, userID.String())
	})

	return router
}

func doProtected(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func Test_UserIdentityMiddleware(t *testing.T) {
	userID := uuid.New()

	t.Run("valid token with live session", func(t *testing.T) {
		m := newTestAuthManager(t, 15*time.Minute)

		issued, err := m.Issue(userID, auth.KindAccess)
		require.NoError(t, err)

		router := newProtectedRouter(m, &stubSessions{
			liveAccessJTIs: map[string]uuid.UUID{issued.JTI: userID},
		})

		w := doProtected(router, "Bearer "+issued.Token)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		m := newTestAuthManager(t, 15*time.Minute)
		router := newProtectedRouter(m, &stubSessions{})

		w := doProtected(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		m := newTestAuthManager(t, 15*time.Minute)
		router := newProtectedRouter(m, &stubSessions{})

		for _, header := range []string{"Token abc", "Bearer", "Bearer  ", "garbage"} {
			w := doProtected(router, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		m := newTestAuthManager(t, 15*time.Minute)
		router := newProtectedRouter(m, &stubSessions{})

		w := doProtected(router, "Bearer not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		m := newTestAuthManager(t, -time.Minute)

		issued, err := m.Issue(userID, auth.KindAccess)
		require.NoError(t, err)

		router := newProtectedRouter(m, &stubSessions{
			liveAccessJTIs: map[string]uuid.UUID{issued.JTI: userID},
		})

		w := doProtected(router, "Bearer "+issued.Token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token rejected on the access gate", func(t *testing.T) {
		m := newTestAuthManager(t, 15*time.Minute)

		issued, err := m.Issue(userID, auth.KindRefresh)
		require.NoError(t, err)

		router := newProtectedRouter(m, &stubSessions{
			liveAccessJTIs: map[string]uuid.UUID{issued.JTI: userID},
		})

		w := doProtected(router, "Bearer "+issued.Token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token but revoked session", func(t *testing.T) {
		m := newTestAuthManager(t, 15*time.Minute)

		issued, err := m.Issue(userID, auth.KindAccess)
		require.NoError(t, err)

		router := newProtectedRouter(m, &stubSessions{})

		w := doProtected(router, "Bearer "+issued.Token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

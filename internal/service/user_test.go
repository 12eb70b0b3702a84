package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wealthplan/backend/internal/config"
	"github.com/wealthplan/backend/internal/domain"
	"github.com/wealthplan/backend/pkg/auth"
	"github.com/wealthplan/backend/pkg/hash"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEntry
		}
	}

	cp := *user
	r.users = append(r.users, &cp)
	return nil
}

func (r *fakeUserRepo) GetByCredentials(_ context.Context, email string, passwordHash string) (*uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email && u.PasswordHash == passwordHash {
			id := u.ID
			return &id, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetOneByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newAuthManager(t *testing.T, accessTTL, refreshTTL time.Duration) *auth.Manager {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	m, err := auth.NewManager(config.JWTConfig{
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		PrivateKey:      string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})),
		PublicKey:       string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})),
	})
	require.NoError(t, err)

	return m
}

type userServiceFixture struct {
	users        *userService
	sessions     *sessionService
	tokenManager *auth.Manager
	sessionRepo  *fakeSessionRepo
}

func newUserServiceFixture(t *testing.T, accessTTL, refreshTTL time.Duration) *userServiceFixture {
	t.Helper()

	sessionRepo := &fakeSessionRepo{}
	sessions := newSessionService(sessionRepo, newFakeSessionCache(), zap.NewNop(), 5, refreshTTL)
	tokenManager := newAuthManager(t, accessTTL, refreshTTL)

	users := newUserService(
		&fakeUserRepo{},
		sessions,
		hash.NewSHA256Hasher("test-salt"),
		tokenManager,
		config.EmailConfig{},
		zap.NewNop(),
	)

	return &userServiceFixture{
		users:        users,
		sessions:     sessions,
		tokenManager: tokenManager,
		sessionRepo:  sessionRepo,
	}
}

func registerAndLogin(t *testing.T, f *userServiceFixture, email string) *Tokens {
	t.Helper()

	require.NoError(t, f.users.Register(t.Context(), email, "s3cret", "Jane", "Doe"))

	tokens, err := f.users.Login(t.Context(), email, "s3cret", "cli-test", "127.0.0.1")
	require.NoError(t, err)

	return tokens
}

func Test_UserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		require.NoError(t, f.users.Register(t.Context(), "jane@example.com", "s3cret", "Jane", "Doe"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		require.NoError(t, f.users.Register(t.Context(), "jane@example.com", "s3cret", "Jane", "Doe"))
		err := f.users.Register(t.Context(), "jane@example.com", "other", "", "")
		require.ErrorIs(t, err, ErrUserAlreadyExist)
	})
}

func Test_UserService_Login(t *testing.T) {
	t.Parallel()

	t.Run("issues token pair backed by a session", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		tokens := registerAndLogin(t, f, "jane@example.com")

		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.RefreshToken)
		assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)

		refreshClaims, err := f.tokenManager.Verify(tokens.RefreshToken, auth.KindRefresh)
		require.NoError(t, err)

		session, err := f.sessions.Validate(t.Context(), refreshClaims.ID)
		require.NoError(t, err)

		accessClaims, err := f.tokenManager.Verify(tokens.AccessToken, auth.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, accessClaims.ID, session.AccessTokenJTI)
		assert.Equal(t, accessClaims.Subject, session.UserID.String())
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		_, err := f.users.Login(t.Context(), "nobody@example.com", "s3cret", "", "")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		require.NoError(t, f.users.Register(t.Context(), "jane@example.com", "s3cret", "", ""))

		_, err := f.users.Login(t.Context(), "jane@example.com", "wrong", "", "")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func Test_UserService_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rebinds session to the new access token", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		tokens := registerAndLogin(t, f, "jane@example.com")
		oldAccess, err := f.tokenManager.Verify(tokens.AccessToken, auth.KindAccess)
		require.NoError(t, err)

		refreshed, err := f.users.Refresh(t.Context(), tokens.RefreshToken)
		require.NoError(t, err)

		assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken, "refresh token is not rotated")
		assert.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)

		newAccess, err := f.tokenManager.Verify(refreshed.AccessToken, auth.KindAccess)
		require.NoError(t, err)

		session, err := f.sessions.ValidateAccess(t.Context(), newAccess.ID)
		require.NoError(t, err)
		assert.Equal(t, newAccess.ID, session.AccessTokenJTI)

		_, err = f.sessions.ValidateAccess(t.Context(), oldAccess.ID)
		require.ErrorIs(t, err, ErrSessionNotFoundOrExpired, "old access jti must be unbound")
	})

	t.Run("works after the access token expired", func(t *testing.T) {
		f := newUserServiceFixture(t, -time.Minute, testRefreshTTL)

		tokens := registerAndLogin(t, f, "jane@example.com")

		_, err := f.tokenManager.Verify(tokens.AccessToken, auth.KindAccess)
		require.ErrorIs(t, err, auth.ErrTokenExpired)

		_, err = f.users.Refresh(t.Context(), tokens.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, -time.Minute)

		tokens := registerAndLogin(t, f, "jane@example.com")

		_, err := f.users.Refresh(t.Context(), tokens.RefreshToken)
		require.ErrorIs(t, err, ErrSessionNotFoundOrExpired)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		tokens := registerAndLogin(t, f, "jane@example.com")

		_, err := f.users.Refresh(t.Context(), tokens.AccessToken)
		require.ErrorIs(t, err, ErrSessionNotFoundOrExpired)
	})

	t.Run("revoked session", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		tokens := registerAndLogin(t, f, "jane@example.com")
		require.NoError(t, f.users.Logout(t.Context(), tokens.RefreshToken))

		_, err := f.users.Refresh(t.Context(), tokens.RefreshToken)
		require.ErrorIs(t, err, ErrSessionNotFoundOrExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		_, err := f.users.Refresh(t.Context(), "not-a-token")
		require.ErrorIs(t, err, ErrSessionNotFoundOrExpired)
	})
}

func Test_UserService_Logout(t *testing.T) {
	t.Parallel()

	t.Run("revokes the session", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		tokens := registerAndLogin(t, f, "jane@example.com")
		claims, err := f.tokenManager.Verify(tokens.RefreshToken, auth.KindRefresh)
		require.NoError(t, err)

		require.NoError(t, f.users.Logout(t.Context(), tokens.RefreshToken))

		_, err = f.sessions.Validate(t.Context(), claims.ID)
		require.ErrorIs(t, err, ErrSessionNotFoundOrExpired)

		stored, err := f.sessionRepo.GetByToken(t.Context(), claims.ID)
		require.NoError(t, err, "logout flips the flag, never deletes")
		assert.False(t, stored.IsActive)
	})

	t.Run("expired refresh token still logs out", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, -time.Minute)

		tokens := registerAndLogin(t, f, "jane@example.com")

		_, err := f.tokenManager.Verify(tokens.RefreshToken, auth.KindRefresh)
		require.ErrorIs(t, err, auth.ErrTokenExpired)

		require.NoError(t, f.users.Logout(t.Context(), tokens.RefreshToken))

		claims, err := f.tokenManager.DecodeUnverified(tokens.RefreshToken)
		require.NoError(t, err)

		stored, err := f.sessionRepo.GetByToken(t.Context(), claims.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
	})

	t.Run("repeated logout", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		tokens := registerAndLogin(t, f, "jane@example.com")

		require.NoError(t, f.users.Logout(t.Context(), tokens.RefreshToken))
		require.NoError(t, f.users.Logout(t.Context(), tokens.RefreshToken))
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		err := f.users.Logout(t.Context(), "garbage")
		require.ErrorIs(t, err, ErrSessionNotFoundOrExpired)
	})
}

func Test_UserService_GetOneByID(t *testing.T) {
	t.Parallel()

	t.Run("unknown user", func(t *testing.T) {
		f := newUserServiceFixture(t, 15*time.Minute, testRefreshTTL)

		_, err := f.users.GetOneByID(t.Context(), uuid.New())
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

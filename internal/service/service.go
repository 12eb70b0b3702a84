package service

import (
	"context"

	"github.com/wealthplan/backend/internal/cache"
	"github.com/wealthplan/backend/internal/config"
	"github.com/wealthplan/backend/internal/domain"
	"github.com/wealthplan/backend/internal/repository"
	"github.com/wealthplan/backend/pkg/auth"
	"github.com/wealthplan/backend/pkg/hash"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Services struct {
	Users    Users
	Sessions Sessions
}

type Deps struct {
	Logger       *zap.Logger
	Config       *config.Config
	Hasher       hash.PasswordHasher
	TokenManager auth.TokenManager
	SessionCache cache.SessionCache
	Repos        *repository.Repositories
}

func NewServices(deps Deps) *Services {
	sessions := newSessionService(
		deps.Repos.Sessions,
		deps.SessionCache,
		deps.Logger,
		deps.Config.Auth.MaxSessionsPerUser,
		deps.Config.Auth.JWT.RefreshTokenTTL,
	)

	return &Services{
		Sessions: sessions,
		Users: newUserService(deps.Repos.Users,
			sessions,
			deps.Hasher,
			deps.TokenManager,
			deps.Config.Email,
			deps.Logger,
		),
	}
}

type Users interface {
	Register(ctx context.Context, email string, password string, firstName string, lastName string) error
	Login(ctx context.Context, email string, password string, deviceInfo string, ip string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Sessions manages the session lifecycle over the durable store with the
// cache as a strict read optimization. One shared instance is constructed at
// startup and handed to every request-scoped caller.
type Sessions interface {
	Create(ctx context.Context, userID uuid.UUID, refreshJTI string, accessJTI string, deviceInfo string, ip string) (*domain.Session, error)
	Validate(ctx context.Context, sessionToken string) (*domain.Session, error)
	ValidateAccess(ctx context.Context, accessJTI string) (*domain.Session, error)
	UpdateAccessToken(ctx context.Context, sessionToken string, accessJTI string) error
	Revoke(ctx context.Context, sessionToken string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) (int, error)
	ActiveSessions(ctx context.Context, userID uuid.UUID) ([]domain.Session, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

package repository

import (
	"context"
	"time"

	"github.com/wealthplan/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Users    Users
	Sessions Sessions
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:    newUserRepository(db),
		Sessions: newSessionRepository(db),
	}
}

type Users interface {
	Create(ctx context.Context, user *domain.User) error
	GetByCredentials(ctx context.Context, email string, passwordHash string) (*uuid.UUID, error)
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Sessions is the durable session store, the single source of truth for the
// session lifecycle. Writes are targeted row-level UPDATEs so concurrent
// callers rely on the database's own atomicity, not application locks.
type Sessions interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, sessionToken string) (*domain.Session, error)
	GetByAccessJTI(ctx context.Context, accessJTI string) (*domain.Session, error)
	// GetActiveByUser returns the user's active, unexpired sessions ordered by
	// created_at ascending (insertion order breaks created_at ties).
	GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]domain.Session, error)
	// UpdateAccessJTI rebinds the newest access token to the session.
	// Returns domain.ErrNotFound when no row matches the token.
	UpdateAccessJTI(ctx context.Context, sessionToken string, accessJTI string) error
	// Touch sets last_activity_at only while the validity predicate holds and
	// reports how many rows matched. Zero means revoked, expired or missing.
	Touch(ctx context.Context, sessionToken string, now time.Time) (int64, error)
	// Deactivate flips is_active off. Idempotent; the row is kept for audit.
	Deactivate(ctx context.Context, sessionToken string) error
	// DeleteExpired purges rows whose expires_at has passed regardless of
	// is_active and returns the number removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

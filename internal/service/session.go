package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wealthplan/backend/internal/cache"
	"github.com/wealthplan/backend/internal/domain"
	"github.com/wealthplan/backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionService struct {
	sessionRepository  repository.Sessions
	sessionCache       cache.SessionCache
	logger             *zap.Logger
	maxSessionsPerUser int
	refreshTokenTTL    time.Duration
}

func newSessionService(sessionRepository repository.Sessions,
	sessionCache cache.SessionCache,
	logger *zap.Logger,
	maxSessionsPerUser int,
	refreshTokenTTL time.Duration,
) *sessionService {
	return &sessionService{
		sessionRepository:  sessionRepository,
		sessionCache:       sessionCache,
		logger:             logger,
		maxSessionsPerUser: maxSessionsPerUser,
		refreshTokenTTL:    refreshTokenTTL,
	}
}

// Create inserts a new session for the user and primes the cache. When the
// user is already at the session cap the oldest active sessions are revoked
// first, so a burst of logins evicts rather than rejects.
//
// The count-then-evict-then-insert sequence is not serialized across
// concurrent logins for the same user; a race may briefly allow one extra
// session, corrected by the next Create or cleanup pass.
func (s *sessionService) Create(ctx context.Context, userID uuid.UUID, refreshJTI string, accessJTI string, deviceInfo string, ip string) (*domain.Session, error) {
	active, err := s.sessionRepository.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active sessions failed: %w", err)
	}

	for _, victim := range sessionsToEvict(active, s.maxSessionsPerUser) {
		if err := s.Revoke(ctx, victim.SessionToken); err != nil {
			return nil, fmt.Errorf("evict oldest session failed: %w", err)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id failed: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:             id,
		UserID:         userID,
		SessionToken:   refreshJTI,
		AccessTokenJTI: accessJTI,
		DeviceInfo:     deviceInfo,
		IP:             ip,
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.refreshTokenTTL),
	}

	if err := s.sessionRepository.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session failed: %w", err)
	}

	if err := s.sessionCache.Set(ctx, session); err != nil {
		s.logger.Warn("session cache write-through failed", zap.Error(err))
	}

	return session, nil
}

// Validate resolves a session token cache-first with store fallback and
// write-back, then records activity on the durable row. The activity touch
// carries the validity predicate in its WHERE clause, so a stale cache entry
// can never admit a session the store would reject.
func (s *sessionService) Validate(ctx context.Context, sessionToken string) (*domain.Session, error) {
	now := time.Now()

	cached, err := s.sessionCache.Get(ctx, sessionToken)
	if err != nil {
		s.logger.Warn("session cache read failed, falling back to store", zap.Error(err))
		cached = nil
	}

	if cached != nil && cached.Valid(now) {
		touched, err := s.sessionRepository.Touch(ctx, sessionToken, now)
		if err != nil {
			return nil, err
		}

		if touched > 0 {
			return &domain.Session{
				UserID:         cached.UserID,
				SessionToken:   sessionToken,
				AccessTokenJTI: cached.AccessTokenJTI,
				IsActive:       true,
				LastActivityAt: now,
				ExpiresAt:      cached.ExpiresAt,
			}, nil
		}
		// Projection was stale; the store decides below.
	}

	session, err := s.sessionRepository.GetByToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrSessionNotFoundOrExpired
		}
		return nil, err
	}

	if !session.Valid(now) {
		return nil, ErrSessionNotFoundOrExpired
	}

	if err := s.sessionCache.Set(ctx, session); err != nil {
		s.logger.Warn("session cache write-back failed", zap.Error(err))
	}

	if _, err := s.sessionRepository.Touch(ctx, sessionToken, now); err != nil {
		return nil, err
	}
	session.LastActivityAt = now

	return session, nil
}

// ValidateAccess resolves a session by the jti of its newest access token.
// The cache is keyed by session token, so this path always reads the store.
func (s *sessionService) ValidateAccess(ctx context.Context, accessJTI string) (*domain.Session, error) {
	now := time.Now()

	session, err := s.sessionRepository.GetByAccessJTI(ctx, accessJTI)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrSessionNotFoundOrExpired
		}
		return nil, err
	}

	if !session.Valid(now) {
		return nil, ErrSessionNotFoundOrExpired
	}

	if _, err := s.sessionRepository.Touch(ctx, session.SessionToken, now); err != nil {
		return nil, err
	}
	session.LastActivityAt = now

	return session, nil
}

// UpdateAccessToken rebinds the session to a freshly issued access token
// after a refresh exchange. The cache entry is rewritten in place so its TTL
// stays aligned with the session expiry.
func (s *sessionService) UpdateAccessToken(ctx context.Context, sessionToken string, accessJTI string) error {
	if err := s.sessionRepository.UpdateAccessJTI(ctx, sessionToken, accessJTI); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("update session access token failed: %w", err)
	}

	if err := s.sessionCache.UpdateAccessJTI(ctx, sessionToken, accessJTI); err != nil {
		s.logger.Warn("session cache update failed", zap.Error(err))
	}

	return nil
}

// Revoke flips the session inactive and drops the cache entry. Idempotent;
// the durable row is kept for audit and is removed only by CleanupExpired.
func (s *sessionService) Revoke(ctx context.Context, sessionToken string) error {
	if err := s.sessionRepository.Deactivate(ctx, sessionToken); err != nil {
		return err
	}

	if err := s.sessionCache.Delete(ctx, sessionToken); err != nil {
		s.logger.Warn("session cache delete failed", zap.Error(err))
	}

	return nil
}

// RevokeAll revokes every active session of the user and returns how many it
// revoked. The read is scoped by user id, so sessions of other users are
// untouchable through this path.
func (s *sessionService) RevokeAll(ctx context.Context, userID uuid.UUID) (int, error) {
	active, err := s.sessionRepository.GetActiveByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list active sessions failed: %w", err)
	}

	for _, session := range active {
		if err := s.Revoke(ctx, session.SessionToken); err != nil {
			return 0, fmt.Errorf("revoke session failed: %w", err)
		}
	}

	return len(active), nil
}

func (s *sessionService) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]domain.Session, error) {
	return s.sessionRepository.GetActiveByUser(ctx, userID)
}

// CleanupExpired deletes every durable row whose expiry has passed, active or
// revoked. Cache entries are left to lapse through their own TTL.
func (s *sessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.sessionRepository.DeleteExpired(ctx, time.Now())
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wealthplan/backend/internal/config"
	"github.com/wealthplan/backend/internal/domain"
	"github.com/wealthplan/backend/internal/queue/client"
	"github.com/wealthplan/backend/internal/queue/task"
	"github.com/wealthplan/backend/internal/repository"
	"github.com/wealthplan/backend/pkg/auth"
	"github.com/wealthplan/backend/pkg/hash"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type userService struct {
	userRepository repository.Users
	sessionService Sessions
	hasher         hash.PasswordHasher
	tokenManager   auth.TokenManager
	emailConfig    config.EmailConfig
	logger         *zap.Logger
}

func newUserService(userRepository repository.Users,
	sessionService Sessions,
	hasher hash.PasswordHasher,
	tokenManager auth.TokenManager,
	emailConfig config.EmailConfig,
	logger *zap.Logger,
) *userService {
	return &userService{
		userRepository: userRepository,
		sessionService: sessionService,
		hasher:         hasher,
		tokenManager:   tokenManager,
		emailConfig:    emailConfig,
		logger:         logger,
	}
}

type Tokens struct {
	AccessToken  string
	AccessTTL    time.Duration
	RefreshToken string
	RefreshTTL   time.Duration
}

func (s *userService) Register(ctx context.Context, email string, password string, firstName string, lastName string) error {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password failed: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate user id failed: %w", err)
	}

	user := &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    nullString(firstName),
		LastName:     nullString(lastName),
	}

	if err := s.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return ErrUserAlreadyExist
		}
		return fmt.Errorf("create user failed: %w", err)
	}

	return nil
}

func (s *userService) Login(ctx context.Context, email string, password string, deviceInfo string, ip string) (*Tokens, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	userID, err := s.userRepository.GetByCredentials(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by credentials failed: %w", err)
	}

	tokens, err := s.createSession(ctx, *userID, deviceInfo, ip)
	if err != nil {
		return nil, err
	}

	s.enqueueLoginAlert(ctx, *userID, deviceInfo, ip)

	return tokens, nil
}

// createSession issues a fresh token pair and persists the session keyed by
// the refresh token's jti.
func (s *userService) createSession(ctx context.Context, userID uuid.UUID, deviceInfo string, ip string) (*Tokens, error) {
	access, err := s.tokenManager.Issue(userID, auth.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("generate access token failed: %w", err)
	}

	refresh, err := s.tokenManager.Issue(userID, auth.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token failed: %w", err)
	}

	if _, err := s.sessionService.Create(ctx, userID, refresh.JTI, access.JTI, deviceInfo, ip); err != nil {
		return nil, fmt.Errorf("create session failed: %w", err)
	}

	return &Tokens{
		AccessToken:  access.Token,
		AccessTTL:    access.TTL,
		RefreshToken: refresh.Token,
		RefreshTTL:   refresh.TTL,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token and rebinds
// the session to the new access jti. The refresh token itself is not rotated.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.tokenManager.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, ErrSessionNotFoundOrExpired
	}

	session, err := s.sessionService.Validate(ctx, claims.ID)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || session.UserID != userID {
		return nil, ErrSessionNotFoundOrExpired
	}

	access, err := s.tokenManager.Issue(userID, auth.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("generate access token failed: %w", err)
	}

	if err := s.sessionService.UpdateAccessToken(ctx, claims.ID, access.JTI); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFoundOrExpired
		}
		return nil, err
	}

	return &Tokens{
		AccessToken:  access.Token,
		AccessTTL:    access.TTL,
		RefreshToken: refreshToken,
		RefreshTTL:   time.Until(session.ExpiresAt),
	}, nil
}

// Logout revokes the session of the presented refresh token. The token is
// decoded without signature or expiry checks so an expired refresh token can
// still terminate its own session.
func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokenManager.DecodeUnverified(refreshToken)
	if err != nil {
		return ErrSessionNotFoundOrExpired
	}

	return s.sessionService.Revoke(ctx, claims.ID)
}

func (s *userService) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepository.GetOneByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// enqueueLoginAlert queues a new-sign-in notification. Best effort: a queue
// outage must never fail a login.
func (s *userService) enqueueLoginAlert(ctx context.Context, userID uuid.UUID, deviceInfo string, ip string) {
	if !s.emailConfig.Enabled {
		return
	}

	queueClient := client.GetClient(ctx)
	if queueClient == nil {
		return
	}

	user, err := s.userRepository.GetOneByID(ctx, userID)
	if err != nil {
		s.logger.Warn("load user for login alert failed", zap.Error(err))
		return
	}

	alertTask, err := task.NewLoginAlertTask(user.Email, deviceInfo, ip, time.Now())
	if err != nil {
		s.logger.Warn("build login alert task failed", zap.Error(err))
		return
	}

	if _, err := queueClient.Enqueue(alertTask); err != nil {
		s.logger.Warn("enqueue login alert failed", zap.Error(err))
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
